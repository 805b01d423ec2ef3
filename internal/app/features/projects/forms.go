package projects

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/shopspring/decimal"
)

// projectInput is the new-project form.
type projectInput struct {
	Name        string `validate:"required,max=200" label:"Project name"`
	Description string `validate:"max=2000" label:"Description"`
	StartDate   string `validate:"required,date" label:"Start date"`
	EndDate     string `validate:"date" label:"End date"`
}

func readProject(r *http.Request) projectInput {
	return projectInput{
		Name:        strings.TrimSpace(r.FormValue("Name")),
		Description: strings.TrimSpace(r.FormValue("Description")),
		StartDate:   strings.TrimSpace(r.FormValue("StartDate")),
		EndDate:     strings.TrimSpace(r.FormValue("EndDate")),
	}
}

// validate adds the cross-field date check to the tag rules already applied.
func (in projectInput) validate(form *formutil.Base) {
	if form.FieldError("StartDate") != "" || form.FieldError("EndDate") != "" || in.EndDate == "" {
		return
	}
	start, end := mustDate(in.StartDate), mustDate(in.EndDate)
	if end.Before(start) {
		form.SetFieldError("EndDate", "End date cannot be before the start date.")
	}
}

// entryInput is the add-income and add-expense form.
type entryInput struct {
	Amount      string `validate:"required,amount" label:"Amount"`
	Date        string `validate:"required,date" label:"Date"`
	Description string `validate:"required,max=200" label:"Type"`
}

func readEntry(r *http.Request) entryInput {
	return entryInput{
		Amount:      strings.TrimSpace(r.FormValue("Amount")),
		Date:        strings.TrimSpace(r.FormValue("Date")),
		Description: strings.TrimSpace(r.FormValue("Description")),
	}
}

// amount is only called after validation passed.
func (in entryInput) amount() float64 {
	d, _ := decimal.NewFromString(in.Amount)
	v, _ := d.Round(2).Float64()
	return v
}

// taskInput is the add-task form. Completed is a checkbox.
type taskInput struct {
	Name      string `validate:"required,max=200" label:"Task"`
	DueDate   string `validate:"date" label:"Due date"`
	Completed bool
}

func readTask(r *http.Request) taskInput {
	return taskInput{
		Name:      strings.TrimSpace(r.FormValue("Name")),
		DueDate:   strings.TrimSpace(r.FormValue("DueDate")),
		Completed: r.FormValue("Completed") != "",
	}
}

func (in taskInput) due() *time.Time {
	if in.DueDate == "" {
		return nil
	}
	t := mustDate(in.DueDate)
	return &t
}

// mustDate parses a date that already passed the "date" rule.
func mustDate(s string) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t
}
