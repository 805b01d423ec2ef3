package ledger

import (
	"testing"
	"time"

	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRow_Project(t *testing.T) {
	end := day("2024-03-31")
	r := Row{
		ID:             "17",
		Name:           "Depot",
		StartDate:      day("2024-01-01"),
		EndDate:        &end,
		Income:         1500.25,
		Expenses:       2000,
		TasksTotal:     3,
		TasksCompleted: 2,
	}

	p := r.Project(day("2024-06-01"))

	assert.Equal(t, "17", p.ProjectID)
	assert.Equal(t, "2024-01-01", p.StartDate)
	require.NotNil(t, p.EndDate)
	assert.Equal(t, "2024-03-31", *p.EndDate)
	assert.InDelta(t, -499.75, p.Profit, 1e-9)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, 66, p.Completion)
}

func TestRow_ProjectOpenEnded(t *testing.T) {
	r := Row{ID: "1", Name: "Future", StartDate: day("2030-01-01")}
	p := r.Project(day("2024-06-01"))

	assert.Nil(t, p.EndDate)
	assert.Equal(t, models.StatusNotStarted, p.Status)
	assert.Equal(t, 0, p.Completion)
}
