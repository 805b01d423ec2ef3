// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/authutil"
	"github.com/dalemusser/projectdash/internal/app/system/formutil"
	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"github.com/dalemusser/projectdash/internal/app/system/limits"
	"github.com/dalemusser/projectdash/internal/app/system/normalize"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(accounts *accountstore.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

// registerInput is the posted form. Field names double as form keys.
type registerInput struct {
	CompanyName     string `validate:"required,max=200" label:"Company name"`
	FullName        string `validate:"required,max=200" label:"Full name"`
	Email           string `validate:"required,email,max=254" label:"Email"`
	Password        string `validate:"required,password" label:"Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Confirm password"`
	Country         string `validate:"required,max=100" label:"Country"`
	Industry        string `validate:"required,max=100" label:"Industry"`
}

func readInput(r *http.Request) registerInput {
	return registerInput{
		CompanyName:     strings.TrimSpace(r.FormValue("CompanyName")),
		FullName:        normalize.Name(r.FormValue("FullName")),
		Email:           normalize.Email(r.FormValue("Email")),
		Password:        r.FormValue("Password"),
		ConfirmPassword: r.FormValue("ConfirmPassword"),
		Country:         strings.TrimSpace(r.FormValue("Country")),
		Industry:        strings.TrimSpace(r.FormValue("Industry")),
	}
}

// splitName puts the first word in the first name and the rest in the last.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// validate runs the struct rules and then the password policy checks that
// need more than a tag.
func validate(in registerInput, form *formutil.Base) {
	form.SetResult(inputval.Validate(in))
	if form.FieldError("Password") == "" && in.Password != "" {
		if err := authutil.ValidatePassword(in.Password); err != nil {
			form.SetFieldError("Password", err.Error())
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, registerInput{}, formutil.Base{})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAuthFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	in := readInput(r)
	var form formutil.Base
	validate(in, &form)
	if form.Error != "" {
		h.render(w, r, in, form)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	first, last := splitName(in.FullName)
	user, company, err := h.Accounts.Register(ctx, accountstore.Registration{
		CompanyName: in.CompanyName,
		Country:     in.Country,
		Industry:    in.Industry,
		FirstName:   first,
		LastName:    last,
		Email:       in.Email,
		Password:    in.Password,
	})
	if errors.Is(err, accountstore.ErrDuplicateEmail) {
		form.SetFieldError("Email", "An account with this email already exists.")
		h.render(w, r, in, form)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register company failed", err, "We could not create your account. Please try again.", "/register")
		return
	}

	h.AuditLog.CompanyRegistered(ctx, r, user.ID, company.ID, company.Name)
	h.Log.Info("company registered",
		zap.String("company_id", company.ID.Hex()),
		zap.String("user_id", user.ID.Hex()))

	err = h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:          user.ID.Hex(),
		Name:        user.FullName(),
		Email:       user.Email,
		Role:        user.Role,
		CompanyID:   company.ID.Hex(),
		CompanyName: company.Name,
	})
	if err != nil {
		// The account exists; send them to sign in rather than re-register.
		h.Log.Error("save session failed after registration", zap.Error(err))
		redirect(w, r, "/login")
		return
	}

	redirect(w, r, "/dashboard")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register/validate?field=Email                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleValidateField re-checks one field as the user leaves it and returns
// just that field's markup.
func (h *Handler) HandleValidateField(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAuthFormSize)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("field")
	def, ok := fieldDefByName(name)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	in := readInput(r)
	var form formutil.Base
	validate(in, &form)

	if name == "Email" && form.FieldError("Email") == "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		exists, err := h.Accounts.EmailExists(ctx, in.Email)
		if err != nil {
			h.Log.Warn("email lookup failed", zap.Error(err))
		} else if exists {
			form.SetFieldError("Email", "An account with this email already exists.")
		}
	}

	templates.RenderSnippet(w, "register_field", buildField(def, in, form, true))
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
