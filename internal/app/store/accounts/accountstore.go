// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/authutil"
	"github.com/dalemusser/projectdash/internal/app/system/normalize"
	"github.com/dalemusser/projectdash/internal/app/system/txn"
	"github.com/dalemusser/projectdash/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Both wrap ErrInvalidCredentials; they differ only for audit logging.
	ErrUnknownEmail  = fmt.Errorf("%w: unknown email", ErrInvalidCredentials)
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
)

// Registration is a new company together with its first (admin) user.
type Registration struct {
	CompanyName string
	Country     string
	Industry    string
	FirstName   string
	LastName    string
	Email       string
	Password    string
}

// Collection names.
const (
	UsersCollection     = "users"
	CompaniesCollection = "companies"
)

type Store struct {
	db        *mongo.Database
	users     *mongo.Collection
	companies *mongo.Collection
	cost      int
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:        db,
		users:     db.Collection(UsersCollection),
		companies: db.Collection(CompaniesCollection),
		cost:      bcrypt.DefaultCost,
	}
}

// WithCost returns a copy using the given bcrypt cost. Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

// EmailExists reports whether a user with this email is registered.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.users.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Register creates the company and its admin user. When the email is
// already taken nothing is left behind and ErrDuplicateEmail is returned.
func (s *Store) Register(ctx context.Context, reg Registration) (models.User, models.Company, error) {
	exists, err := s.EmailExists(ctx, reg.Email)
	if err != nil {
		return models.User{}, models.Company{}, err
	}
	if exists {
		return models.User{}, models.Company{}, ErrDuplicateEmail
	}

	hash, err := authutil.HashPasswordCost(reg.Password, s.cost)
	if err != nil {
		return models.User{}, models.Company{}, err
	}

	now := time.Now().UTC()
	company := models.Company{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(reg.CompanyName),
		Country:   strings.TrimSpace(reg.Country),
		Industry:  strings.TrimSpace(reg.Industry),
		CreatedAt: now,
	}
	email := normalize.Email(reg.Email)
	user := models.User{
		ID:           primitive.NewObjectID(),
		CompanyID:    company.ID,
		FirstName:    normalize.Name(reg.FirstName),
		LastName:     normalize.Name(reg.LastName),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = txn.Run(ctx, s.db, zap.L(), func(ctx context.Context) error {
		if _, err := s.companies.InsertOne(ctx, company); err != nil {
			return err
		}
		if _, err := s.users.InsertOne(ctx, user); err != nil {
			// Without transaction support the company is already written.
			_, _ = s.companies.DeleteOne(ctx, bson.M{"_id": company.ID})
			return err
		}
		return nil
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, models.Company{}, ErrDuplicateEmail
		}
		return models.User{}, models.Company{}, err
	}
	return user, company, nil
}

// Authenticate checks the password against the stored bcrypt hash.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrUnknownEmail
	}
	if err != nil {
		return models.User{}, err
	}
	if !authutil.CheckPassword(password, u.PasswordHash) {
		return u, ErrWrongPassword
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) GetCompany(ctx context.Context, id primitive.ObjectID) (models.Company, error) {
	var c models.Company
	err := s.companies.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Company{}, ErrNotFound
	}
	return c, err
}
