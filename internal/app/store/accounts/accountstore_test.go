package accountstore_test

import (
	"errors"
	"testing"

	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func registration(email string) accountstore.Registration {
	return accountstore.Registration{
		CompanyName: "Budimex",
		Country:     "Poland",
		Industry:    "Construction",
		FirstName:   "Anna",
		LastName:    "Nowak",
		Email:       email,
		Password:    "Secret#123",
	}
}

func TestStore_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, company, err := store.Register(ctx, registration("  Anna@Example.com "))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.CompanyID != company.ID {
		t.Error("expected user to belong to the new company")
	}
	if user.Email != "anna@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != "admin" {
		t.Errorf("expected admin role, got %q", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "Secret#123" {
		t.Error("expected password to be hashed")
	}

	got, err := store.GetCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	if got.Name != "Budimex" {
		t.Errorf("expected company name Budimex, got %q", got.Name)
	}
}

func TestStore_Register_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.Register(ctx, registration("dup@example.com")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, _, err := store.Register(ctx, registration("DUP@example.com"))
	if !errors.Is(err, accountstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	n, err := db.Collection("companies").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("count companies: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 company after duplicate registration, got %d", n)
	}
}

func TestStore_Authenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, _, err := store.Register(ctx, registration("login@example.com"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	u, err := store.Authenticate(ctx, "LOGIN@example.com", "Secret#123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.ID != created.ID {
		t.Error("expected the registered user")
	}

	if _, err := store.Authenticate(ctx, "login@example.com", "wrong"); !errors.Is(err, accountstore.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := store.Authenticate(ctx, "nobody@example.com", "Secret#123"); !errors.Is(err, accountstore.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if _, err := store.Authenticate(ctx, "nobody@example.com", "x"); !errors.Is(err, accountstore.ErrUnknownEmail) {
		t.Errorf("expected ErrUnknownEmail, got %v", err)
	}
	u, err = store.Authenticate(ctx, "login@example.com", "wrong")
	if !errors.Is(err, accountstore.ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
	if u.ID.IsZero() {
		t.Error("expected the user to be returned with ErrWrongPassword")
	}
}

func TestStore_EmailExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exists, err := store.EmailExists(ctx, "new@example.com")
	if err != nil || exists {
		t.Fatalf("expected not exists, got %v %v", exists, err)
	}
	if _, _, err := store.Register(ctx, registration("new@example.com")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	exists, err = store.EmailExists(ctx, "New@Example.com")
	if err != nil || !exists {
		t.Errorf("expected exists, got %v %v", exists, err)
	}
}
