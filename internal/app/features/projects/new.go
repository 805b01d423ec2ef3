package projects

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type newData struct {
	formutil.Base
	Input projectInput
}

func (h *Handler) renderNew(w http.ResponseWriter, r *http.Request, status int, in projectInput, form formutil.Base) {
	formutil.SetBase(&form, r, "New project", "/dashboard")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "project_new", newData{Base: form, Input: in})
}

// ServeNew handles GET /project/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderNew(w, r, http.StatusOK, projectInput{StartDate: h.today().Format("2006-01-02")}, formutil.Base{})
}

// HandleCreate handles POST /project/new.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if !h.parseForm(w, r, "/project/new") {
		return
	}

	in := readProject(r)
	var form formutil.Base
	form.SetResult(inputval.Validate(in))
	in.validate(&form)
	if form.Error != "" {
		h.renderNew(w, r, http.StatusUnprocessableEntity, in, form)
		return
	}

	np := ledger.NewProject{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   mustDate(in.StartDate),
	}
	if in.EndDate != "" {
		end := mustDate(in.EndDate)
		np.EndDate = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Ledger.CreateProject(ctx, u.CompanyID, np)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create project failed", err, "The project could not be created.", "/project/new")
		return
	}

	h.AuditLog.ProjectCreated(ctx, r, u.ID, u.CompanyID, id, in.Name)
	h.Log.Info("project created",
		zap.String("company_id", u.CompanyID),
		zap.String("project_id", id))
	h.notify(u.CompanyID)
	redirect(w, r, "/project/"+url.PathEscape(id))
}
