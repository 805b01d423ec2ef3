package projects

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		in        projectInput
		wantField string
	}{
		{"valid open ended", projectInput{Name: "Depot", StartDate: "2024-01-01"}, ""},
		{"valid range", projectInput{Name: "Depot", StartDate: "2024-01-01", EndDate: "2024-01-01"}, ""},
		{"missing name", projectInput{StartDate: "2024-01-01"}, "Name"},
		{"bad start", projectInput{Name: "Depot", StartDate: "tomorrow"}, "StartDate"},
		{"end before start", projectInput{Name: "Depot", StartDate: "2024-02-01", EndDate: "2024-01-31"}, "EndDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form formutil.Base
			form.SetResult(inputval.Validate(tt.in))
			tt.in.validate(&form)
			if tt.wantField == "" {
				assert.Empty(t, form.Error)
				return
			}
			assert.NotEmpty(t, form.FieldError(tt.wantField))
		})
	}
}

func TestEntryInput_Amount(t *testing.T) {
	assert.Equal(t, 2500.5, entryInput{Amount: "2500.50"}.amount())
	assert.Equal(t, 10.0, entryInput{Amount: "10"}.amount())
}

func TestTaskInput_Due(t *testing.T) {
	assert.Nil(t, taskInput{}.due())
	due := taskInput{DueDate: "2024-03-01"}.due()
	require.NotNil(t, due)
	assert.Equal(t, "2024-03-01", due.Format(models.DateLayout))
}

func TestDetailData(t *testing.T) {
	end := "2024-12-31"
	due := "2024-03-01"
	h := &Handler{Currency: "PLN"}
	d := ledger.Detail{
		Project: models.Project{
			ProjectID:   "7",
			Name:        "Bridge",
			Description: "<b>Span</b><script>x()</script>",
			StartDate:   "2024-01-01",
			EndDate:     &end,
			Status:      models.StatusInProgress,
			Income:      1000,
			Expenses:    1500,
			Profit:      -500,
			Completion:  50,
		},
		Income:   []ledger.Entry{{Date: "2024-02-01", Amount: 1000, Description: "Invoice"}},
		Expenses: []ledger.Entry{{Date: "2024-02-03", Amount: 1500, Description: "Steel"}},
		Tasks:    []ledger.Task{{Name: "Design", Completed: true, DueDate: &due}, {Name: "Build"}},
	}

	data := h.detailData(httptest.NewRequest("GET", "/project/7", nil), d)

	assert.Equal(t, "status-in-progress", data.StatusClass)
	assert.Equal(t, "negative", data.ProfitTone)
	assert.Equal(t, "-PLN 500.00", data.Profit)
	assert.NotContains(t, string(data.Description), "<script>")
	require.Len(t, data.Income, 1)
	assert.Equal(t, "PLN 1,000.00", data.Income[0].Amount)
	require.Len(t, data.Tasks, 2)
	assert.Equal(t, "3/1/2024", data.Tasks[0].DueDate)
	assert.Equal(t, "/project/7/income", data.IncomeForm.Action)
	assert.Equal(t, "/project/7/expenses", data.ExpenseForm.Action)
	assert.Equal(t, "Add expense", data.ExpenseForm.Submit)
}
