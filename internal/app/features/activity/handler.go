// internal/app/features/activity/handler.go
package activity

import (
	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the company activity page: the audit events recorded for
// the signed-in admin's company.
type Handler struct {
	Audit  *audit.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  store,
		ErrLog: errLog,
		Log:    logger,
	}
}
