package dashboard

import (
	"html/template"
	"net/http"
	"net/url"
	"time"

	dashview "github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
)

// loadingPoll is the poll period while a load is in flight.
const loadingPoll = time.Second

// regionData is what the "dashboard_region" snippet renders: the latest
// published view model plus what the page needs to keep talking to its view.
type regionData struct {
	dashview.ViewModel
	ViewID    string
	Version   uint64
	Poll      string
	CSRFField template.HTML
}

type pageData struct {
	viewdata.BaseVM
	Region regionData
}

func (h *Handler) region(r *http.Request, v *dashview.View) regionData {
	vm, version := v.Published.Latest()
	poll := h.PollInterval
	if vm.Loading || vm.Phase == dashview.PhaseLoading {
		poll = loadingPoll
	}
	return regionData{
		ViewModel: vm,
		ViewID:    v.ID,
		Version:   version,
		Poll:      poll.String(),
		CSRFField: csrf.TemplateField(r),
	}
}

// respond sends the updated region to HTMX callers and sends plain form
// posts back to the page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v *dashview.View) {
	if r.Header.Get("HX-Request") == "true" {
		templates.RenderSnippet(w, "dashboard_region", h.region(r, v))
		return
	}
	http.Redirect(w, r, "/dashboard?view="+url.QueryEscape(v.ID), http.StatusSeeOther)
}
