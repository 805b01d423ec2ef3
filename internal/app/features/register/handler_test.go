package register_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	"github.com/dalemusser/projectdash/internal/app/features/register"
	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*register.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	accounts := accountstore.New(db).WithCost(bcrypt.MinCost)
	return register.NewHandler(accounts, sessionMgr, uierrors.NewErrorLogger(logger), auditlog.NewNopLogger(), logger), db
}

func registerForm() url.Values {
	return url.Values{
		"CompanyName":     {"Acme Build"},
		"FullName":        {"Ada  Nowak"},
		"Email":           {"Ada@Acme.test"},
		"Password":        {"Secret#123"},
		"ConfirmPassword": {"Secret#123"},
		"Country":         {"Poland"},
		"Industry":        {"Construction"},
	}
}

func post(target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// serve runs a handler that may render a template; without a booted engine
// rendering can panic, which these tests do not care about.
func serve(h http.HandlerFunc, rec *httptest.ResponseRecorder, req *http.Request) {
	defer func() { _ = recover() }()
	h(rec, req)
}

func TestHandleRegister_Success(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := httptest.NewRecorder()
	h.HandleRegister(rec, post("/register", registerForm()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want %q", loc, "/dashboard")
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("expected a session cookie")
	}

	var user struct {
		FirstName string `bson:"first_name"`
		LastName  string `bson:"last_name"`
		Email     string `bson:"email"`
		Role      string `bson:"role"`
	}
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "ada@acme.test"}).Decode(&user); err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if user.FirstName != "Ada" || user.LastName != "Nowak" {
		t.Errorf("name = %q %q", user.FirstName, user.LastName)
	}
	if user.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want %q", user.Role, auth.RoleAdmin)
	}
	if n, _ := db.Collection("companies").CountDocuments(ctx, bson.M{"name": "Acme Build"}); n != 1 {
		t.Errorf("expected 1 company, got %d", n)
	}
}

func TestHandleRegister_HTMXRedirect(t *testing.T) {
	h, _ := newTestHandler(t)

	req := post("/register", registerForm())
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/dashboard" {
		t.Errorf("HX-Redirect: got %q, want /dashboard", got)
	}
}

func TestHandleRegister_InvalidCreatesNothing(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	form := registerForm()
	form.Set("ConfirmPassword", "Different#1")

	rec := httptest.NewRecorder()
	serve(h.HandleRegister, rec, post("/register", form))

	if rec.Header().Get("Location") != "" {
		t.Error("invalid form must not redirect")
	}
	if n, _ := db.Collection("users").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("expected no users, got %d", n)
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := httptest.NewRecorder()
	h.HandleRegister(first, post("/register", registerForm()))
	if first.Code != http.StatusSeeOther {
		t.Fatalf("first registration failed: %d", first.Code)
	}

	form := registerForm()
	form.Set("CompanyName", "Other Co")
	rec := httptest.NewRecorder()
	serve(h.HandleRegister, rec, post("/register", form))

	if rec.Header().Get("Location") != "" {
		t.Error("duplicate registration must not redirect")
	}
	if n, _ := db.Collection("companies").CountDocuments(ctx, bson.M{}); n != 1 {
		t.Errorf("expected the second company to be rolled back, got %d companies", n)
	}
}

func TestServeRegister_SignedInRedirects(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/register", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Role: auth.RoleAdmin, CompanyID: "c1"})
	rec := httptest.NewRecorder()
	h.ServeRegister(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
}

func TestHandleValidateField_UnknownField(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleValidateField(rec, post("/register/validate?field=Nope", registerForm()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
