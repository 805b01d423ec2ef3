package dashboard

import (
	"context"
	"net/http"
	"strconv"

	dashview "github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/limits"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
)

// parse limits and parses the small control forms the region posts.
func parse(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxDashboardFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	return true
}

// HandleFilter applies the status filter and sort key together.
func (h *Handler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	v.Controller.SetSelection(
		dashview.ParseStatusFilter(r.FormValue("status")),
		dashview.ParseSortKey(r.FormValue("sort")),
	)
	h.respond(w, r, v)
}

// HandleReset restores the default filter and sort.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	v.Controller.ResetFilters()
	h.respond(w, r, v)
}

func (h *Handler) HandleNextPage(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	v.Controller.NextPage()
	h.respond(w, r, v)
}

func (h *Handler) HandlePrevPage(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	v.Controller.PreviousPage()
	h.respond(w, r, v)
}

// HandleViewport takes a width sample. The request waits out the debounce;
// it gets the new region when its sample changed the size class and 204
// when the sample was superseded or changed nothing.
func (h *Handler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	width, err := strconv.Atoi(r.FormValue("width"))
	if err != nil || width <= 0 {
		http.Error(w, "invalid width", http.StatusBadRequest)
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	select {
	case changed := <-v.Responsive.Observe(width):
		if !changed {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	case <-r.Context().Done():
		return
	}
	h.respond(w, r, v)
}

// HandleVisibility records whether the page is hidden. Hidden views are
// skipped by the auto-refresh job.
func (h *Handler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	hidden, _ := strconv.ParseBool(r.FormValue("hidden"))
	v.SetHidden(hidden)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh re-runs the load for the manual refresh button and for the
// retry action of the error panel. A failed load is rendered as the error
// state, never as an error page.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !parse(w, r) {
		return
	}
	v, _, ok := h.viewFor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	_ = h.load(ctx, v)
	h.respond(w, r, v)
}
