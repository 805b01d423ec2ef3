package dashboard

import (
	"fmt"
	"testing"

	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(id, name, status string, income, expenses float64, completion int) models.Project {
	return models.Project{
		ProjectID:  id,
		Name:       name,
		StartDate:  "2024-01-01",
		Status:     status,
		Income:     income,
		Expenses:   expenses,
		Profit:     income - expenses,
		Completion: completion,
	}
}

// twelveProjects returns 4 projects of each status with distinct profits.
func twelveProjects() []models.Project {
	statuses := []string{models.StatusCompleted, models.StatusInProgress, models.StatusNotStarted}
	var out []models.Project
	for i := 0; i < 12; i++ {
		st := statuses[i%3]
		out = append(out, project(
			fmt.Sprintf("p%02d", i+1),
			fmt.Sprintf("Project %02d", i+1),
			st,
			float64(1000*(i+1)),
			float64(500*(12-i)),
			(i*9)%101,
		))
	}
	return out
}

func ids(ps []models.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ProjectID
	}
	return out
}

func TestApply_FilterKeepsOnlyStatus(t *testing.T) {
	all := twelveProjects()
	for _, f := range StatusFilters[1:] {
		view := Apply(all, f, SortProfit)
		require.Len(t, view, 4, "filter %s", f)
		for _, p := range view {
			assert.Equal(t, string(f), p.Status)
		}
	}
}

func TestApply_AllPassesEverything(t *testing.T) {
	all := twelveProjects()
	assert.Len(t, Apply(all, FilterAll, SortName), len(all))
}

func TestApply_NumericKeysSortDescending(t *testing.T) {
	all := twelveProjects()

	byProfit := Apply(all, FilterAll, SortProfit)
	for i := 1; i < len(byProfit); i++ {
		assert.GreaterOrEqual(t, byProfit[i-1].Profit, byProfit[i].Profit)
	}

	byIncome := Apply(all, FilterAll, SortIncome)
	for i := 1; i < len(byIncome); i++ {
		assert.GreaterOrEqual(t, byIncome[i-1].Income, byIncome[i].Income)
	}

	byCompletion := Apply(all, FilterAll, SortCompletion)
	for i := 1; i < len(byCompletion); i++ {
		assert.GreaterOrEqual(t, byCompletion[i-1].Completion, byCompletion[i].Completion)
	}
}

func TestApply_NameUsesCollation(t *testing.T) {
	in := []models.Project{
		project("1", "cherry", models.StatusCompleted, 0, 0, 0),
		project("2", "Fox", models.StatusCompleted, 0, 0, 0),
		project("3", "Émile", models.StatusCompleted, 0, 0, 0),
		project("4", "Banana", models.StatusCompleted, 0, 0, 0),
		project("5", "apple", models.StatusCompleted, 0, 0, 0),
		project("6", "Eagle", models.StatusCompleted, 0, 0, 0),
	}

	got := Apply(in, FilterAll, SortName)

	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"apple", "Banana", "cherry", "Eagle", "Émile", "Fox"}, names)
}

func TestApply_StableOnTies(t *testing.T) {
	in := []models.Project{
		project("a", "A", models.StatusCompleted, 100, 0, 0),
		project("b", "B", models.StatusCompleted, 100, 0, 0),
		project("c", "C", models.StatusCompleted, 200, 0, 0),
		project("d", "D", models.StatusCompleted, 100, 0, 0),
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(Apply(in, FilterAll, SortProfit)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	all := twelveProjects()
	before := ids(all)

	_ = Apply(all, models.StatusInProgress, SortName)
	_ = Apply(all, FilterAll, SortProfit)

	assert.Equal(t, before, ids(all))
}

func TestApply_Idempotent(t *testing.T) {
	all := twelveProjects()
	first := Apply(all, StatusFilter(models.StatusCompleted), SortIncome)
	second := Apply(all, StatusFilter(models.StatusCompleted), SortIncome)
	assert.Equal(t, first, second)
}

func TestApply_NoMatchesIsEmpty(t *testing.T) {
	in := []models.Project{project("a", "A", models.StatusCompleted, 1, 0, 0)}
	view := Apply(in, StatusFilter(models.StatusNotStarted), SortProfit)
	assert.NotNil(t, view)
	assert.Empty(t, view)
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in   string
		want StatusFilter
	}{
		{"", FilterAll},
		{"All", FilterAll},
		{"Completed", StatusFilter(models.StatusCompleted)},
		{"in progress", StatusFilter(models.StatusInProgress)},
		{" Not Started ", StatusFilter(models.StatusNotStarted)},
		{"Archived", FilterAll},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatusFilter(tt.in), "input %q", tt.in)
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
	}{
		{"", SortProfit},
		{"income", SortIncome},
		{"NAME", SortName},
		{"completion", SortCompletion},
		{"date", SortProfit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSortKey(tt.in), "input %q", tt.in)
	}
}

func TestTopByProfit(t *testing.T) {
	all := twelveProjects()

	top := TopByProfit(all, 5)
	require.Len(t, top, 5)
	assert.Equal(t, Apply(all, FilterAll, SortProfit)[:5], top)

	assert.Len(t, TopByProfit(all, 0), 12)
	assert.Len(t, TopByProfit(all[:3], 8), 3)
}
