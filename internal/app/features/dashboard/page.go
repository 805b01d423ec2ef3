package dashboard

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/projectdash/internal/app/system/auth"
	dashview "github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDashboard handles GET /dashboard. It reuses the view named by ?view=
// when it still exists, otherwise it creates one and starts its first load.
// ?status= and ?sort= preselect the filter of a new view.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login?return=/dashboard", http.StatusSeeOther)
		return
	}

	v, ok := h.Registry.Get(query.Get(r, "view"), u.CompanyID)
	if ok {
		v.Controller.Rerender()
	} else {
		v = h.Registry.Create(u.CompanyID, initialSize(r))
		status, sort := query.Get(r, "status"), query.Get(r, "sort")
		if status != "" || sort != "" {
			v.Controller.SetSelection(dashview.ParseStatusFilter(status), dashview.ParseSortKey(sort))
		}
		h.startLoad(v)
	}

	templates.Render(w, r, "dashboard", pageData{
		BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/"),
		Region: h.region(r, v),
	})
}

// ServeRegion handles GET /dashboard/region?view=&v=. It answers 204 when
// the page already shows version v, so polling costs nothing while idle.
func (h *Handler) ServeRegion(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	vm, version := v.Published.Latest()
	if seen, err := strconv.ParseUint(query.Get(r, "v"), 10, 64); err == nil && seen == version {
		snap := v.Controller.Snapshot()
		if dashview.LastUpdated(snap.LoadedAt, h.now()) == vm.LastUpdated {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		// Only the relative "last updated" text moved on.
		v.Controller.Rerender()
	}
	h.respond(w, r, v)
}
