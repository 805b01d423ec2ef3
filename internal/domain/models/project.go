// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status values. These are the only values the dashboard accepts
// and the only values the data endpoint produces.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
	StatusNotStarted = "Not Started"
)

// DateLayout is the wire format for project dates.
const DateLayout = "2006-01-02"

// Project is one row of the dashboard-data payload.
//
// Income, expenses and profit are supplied by the backend; profit is never
// recomputed on the consuming side.
type Project struct {
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Profit      float64 `json:"profit"`
	Status      string  `json:"status"`
	Completion  int     `json:"completion"`
}

// ProjectDoc is the persisted project record.
type ProjectDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	CompanyID   primitive.ObjectID `bson:"company_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	StartDate   time.Time          `bson:"start_date"`
	EndDate     *time.Time         `bson:"end_date,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// LedgerEntry is a single income or expense line booked against a project.
type LedgerEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID   primitive.ObjectID `bson:"project_id"`
	Amount      float64            `bson:"amount"`
	Description string             `bson:"description,omitempty"`
	Date        time.Time          `bson:"date"`
}

// Task is a unit of work used to compute a project's completion percentage.
type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id"`
	Name      string             `bson:"name"`
	Completed bool               `bson:"completed"`
	DueDate   *time.Time         `bson:"due_date,omitempty"`
}
