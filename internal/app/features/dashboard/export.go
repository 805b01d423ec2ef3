package dashboard

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dalemusser/projectdash/internal/app/system/csvutil"
	"go.uber.org/zap"
)

// ServeExport handles GET /dashboard/export.csv?view=. The file holds the
// full collection regardless of the active filter.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	v, u, ok := h.viewFor(w, r)
	if !ok {
		return
	}

	projects := v.Controller.Collection()
	var buf bytes.Buffer
	buf.Write(csvutil.BOM)
	err := csvutil.WriteProjects(&buf, projects, h.Currency)
	if errors.Is(err, csvutil.ErrNoData) {
		http.Error(w, "No data to export", http.StatusConflict)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "csv export failed", err, "The export could not be created.", "/dashboard")
		return
	}

	filter := string(v.Controller.Snapshot().Filter)
	h.AuditLog.DashboardExported(r.Context(), r, u.ID, u.CompanyID, filter, len(projects))
	h.Log.Info("dashboard exported",
		zap.String("company_id", u.CompanyID),
		zap.Int("rows", len(projects)))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvutil.ExportFilename(h.now())+`"`)
	_, _ = w.Write(buf.Bytes())
}
