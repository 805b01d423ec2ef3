// Package ledger defines the project ledger that backs the dashboard-data
// endpoint. The Mongo and sqlite stores both implement Store.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/projectstatus"
	"github.com/dalemusser/projectdash/internal/domain/models"
)

// ErrProjectNotFound is returned when a ledger entry names an unknown project.
var ErrProjectNotFound = errors.New("project not found")

// NewProject is the input for CreateProject.
type NewProject struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
}

// Store is implemented by every ledger backend.
type Store interface {
	// ListFinancials returns every project of the company with its sums,
	// status and completion as of today.
	ListFinancials(ctx context.Context, companyID string, today time.Time) ([]models.Project, error)
	CreateProject(ctx context.Context, companyID string, p NewProject) (string, error)
	AddIncome(ctx context.Context, projectID string, amount float64, description string, date time.Time) error
	AddExpense(ctx context.Context, projectID string, amount float64, description string, date time.Time) error
	AddTask(ctx context.Context, projectID, name string, completed bool, due *time.Time) error
	// GetProject returns one project of the company with its ledger lines.
	// A project of another company is reported as ErrProjectNotFound.
	GetProject(ctx context.Context, companyID, projectID string, today time.Time) (Detail, error)
	Ping(ctx context.Context) error
}

// Entry is one income or expense line.
type Entry struct {
	Date        string
	Amount      float64
	Description string
}

// Task is one line of the project task list.
type Task struct {
	Name      string
	Completed bool
	DueDate   *string
}

// Detail is a project with its income and expenses (newest first) and its
// tasks (by due date, undated last).
type Detail struct {
	Project  models.Project
	Income   []Entry
	Expenses []Entry
	Tasks    []Task
}

// Row is the backend-neutral aggregate for one project.
type Row struct {
	ID             string
	Name           string
	Description    string
	StartDate      time.Time
	EndDate        *time.Time
	Income         float64
	Expenses       float64
	TasksTotal     int
	TasksCompleted int
}

// Project turns an aggregate row into the wire record. Profit is computed
// here so every backend agrees on it.
func (r Row) Project(today time.Time) models.Project {
	return models.Project{
		ProjectID:   r.ID,
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate.UTC().Format(models.DateLayout),
		EndDate:     projectstatus.FormatDate(r.EndDate),
		Income:      r.Income,
		Expenses:    r.Expenses,
		Profit:      r.Income - r.Expenses,
		Status:      projectstatus.Derive(r.StartDate, r.EndDate, today),
		Completion:  projectstatus.Completion(r.TasksCompleted, r.TasksTotal),
	}
}
