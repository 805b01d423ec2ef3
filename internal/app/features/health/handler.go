package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Ledger ledger.Store
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. ledgerStore may be nil when the
// ledger lives in MongoDB and is covered by the client ping.
func NewHandler(client *mongo.Client, ledgerStore ledger.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Ledger: ledgerStore,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Ledger   string `json:"ledger"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "ledger":"connected" }
//
// On failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Ledger:   "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
	}

	if h.Ledger != nil {
		if err := h.Ledger.Ping(ctx); err != nil {
			h.Log.Error("health-check: ledger ping failed", zap.Error(err))
			resp.Ledger = "disconnected"
			if resp.Status == "ok" {
				resp.Status = "error"
				resp.Message = "Ledger unavailable"
				resp.Error = err.Error()
			}
		}
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
