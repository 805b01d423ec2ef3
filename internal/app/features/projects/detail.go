package projects

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	dashview "github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/projectdash/internal/app/system/htmlsanitize"
	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type entryRow struct {
	Date        string
	Amount      string
	Description string
}

type taskRow struct {
	Name      string
	Completed bool
	DueDate   string
}

type entryForm struct {
	formutil.Base
	Input  entryInput
	Kind   string // "income" or "expense"
	Action string
	Submit string
	CSRF   template.HTML
}

func newEntryForm(kind, projectID string, csrf template.HTML) entryForm {
	f := entryForm{Kind: kind, CSRF: csrf}
	if kind == "income" {
		f.Action, f.Submit = "/project/"+url.PathEscape(projectID)+"/income", "Add income"
	} else {
		f.Action, f.Submit = "/project/"+url.PathEscape(projectID)+"/expenses", "Add expense"
	}
	return f
}

type taskForm struct {
	formutil.Base
	Input taskInput
}

type detailData struct {
	viewdata.BaseVM
	ProjectID   string
	Name        string
	Description template.HTML
	StartDate   string
	EndDate     string
	Status      string
	StatusClass string
	Completion  int

	TotalIncome   string
	TotalExpenses string
	Profit        string
	ProfitTone    string

	Income   []entryRow
	Expenses []entryRow
	Tasks    []taskRow

	IncomeForm  entryForm
	ExpenseForm entryForm
	TaskForm    taskForm
}

func (h *Handler) detailData(r *http.Request, d ledger.Detail) detailData {
	f := dashview.NewFormatter(h.Currency)
	p := d.Project
	data := detailData{
		BaseVM:        viewdata.NewBaseVM(r, p.Name, "/dashboard"),
		ProjectID:     p.ProjectID,
		Name:          p.Name,
		Description:   htmlsanitize.PrepareForDisplay(p.Description),
		StartDate:     f.Date(&p.StartDate, false),
		EndDate:       f.Date(p.EndDate, false),
		Status:        p.Status,
		StatusClass:   dashview.StatusClass(p.Status),
		Completion:    p.Completion,
		TotalIncome:   f.Currency(p.Income, false),
		TotalExpenses: f.Currency(p.Expenses, false),
		Profit:        f.Currency(p.Profit, false),
		ProfitTone:    dashview.Tone(p.Profit),
	}
	data.IncomeForm = newEntryForm("income", p.ProjectID, data.CSRFField)
	data.ExpenseForm = newEntryForm("expense", p.ProjectID, data.CSRFField)
	for _, e := range d.Income {
		data.Income = append(data.Income, entryRow{Date: f.Date(&e.Date, false), Amount: f.Currency(e.Amount, false), Description: e.Description})
	}
	for _, e := range d.Expenses {
		data.Expenses = append(data.Expenses, entryRow{Date: f.Date(&e.Date, false), Amount: f.Currency(e.Amount, false), Description: e.Description})
	}
	for _, t := range d.Tasks {
		data.Tasks = append(data.Tasks, taskRow{Name: t.Name, Completed: t.Completed, DueDate: f.Date(t.DueDate, false)})
	}
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /project/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, ok := h.loadProject(ctx, w, r, u, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	templates.Render(w, r, "project_detail", h.detailData(r, d))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /project/{id}/income, /project/{id}/expenses                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddIncome(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, "income")
}

func (h *Handler) HandleAddExpense(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, "expense")
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request, kind string) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	back := "/project/" + id
	if !h.parseForm(w, r, back) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, ok := h.loadProject(ctx, w, r, u, id)
	if !ok {
		return
	}

	in := readEntry(r)
	var res formutil.Base
	res.SetResult(inputval.Validate(in))
	if res.Error != "" {
		data := h.detailData(r, d)
		form := &data.IncomeForm
		if kind == "expense" {
			form = &data.ExpenseForm
		}
		form.Input = in
		form.Base = res
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "project_detail", data)
		return
	}

	add := h.Ledger.AddIncome
	if kind == "expense" {
		add = h.Ledger.AddExpense
	}
	if err := add(ctx, id, in.amount(), in.Description, mustDate(in.Date)); err != nil {
		h.ErrLog.LogServerError(w, r, "add "+kind+" failed", err, "The entry could not be saved.", back)
		return
	}

	h.AuditLog.LedgerEntryAdded(ctx, r, u.ID, u.CompanyID, id, kind, in.Amount)
	h.Log.Info("ledger entry added",
		zap.String("company_id", u.CompanyID),
		zap.String("project_id", id),
		zap.String("kind", kind))
	h.notify(u.CompanyID)
	redirect(w, r, back)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /project/{id}/tasks                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddTask(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	back := "/project/" + id
	if !h.parseForm(w, r, back) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, ok := h.loadProject(ctx, w, r, u, id)
	if !ok {
		return
	}

	in := readTask(r)
	var form taskForm
	form.Input = in
	form.SetResult(inputval.Validate(in))
	if form.Error != "" {
		data := h.detailData(r, d)
		data.TaskForm = form
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "project_detail", data)
		return
	}

	if err := h.Ledger.AddTask(ctx, id, in.Name, in.Completed, in.due()); err != nil {
		h.ErrLog.LogServerError(w, r, "add task failed", err, "The task could not be saved.", back)
		return
	}

	h.AuditLog.TaskAdded(ctx, r, u.ID, u.CompanyID, id, in.Name)
	h.notify(u.CompanyID)
	redirect(w, r, back)
}
