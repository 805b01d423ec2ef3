// Package seed loads demo data from a YAML file into the account store and
// the configured project ledger.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the top level of a seed document.
type File struct {
	Company  Company   `yaml:"company"`
	Admin    Admin     `yaml:"admin"`
	Projects []Project `yaml:"projects"`
}

type Company struct {
	Name     string `yaml:"name"`
	Country  string `yaml:"country"`
	Industry string `yaml:"industry"`
}

type Admin struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
}

type Project struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	StartDate   string  `yaml:"start_date"`
	EndDate     string  `yaml:"end_date"`
	Income      []Entry `yaml:"income"`
	Expenses    []Entry `yaml:"expenses"`
	Tasks       []Task  `yaml:"tasks"`
}

// Entry is one income or expense line. Date defaults to the project start.
type Entry struct {
	Amount      float64 `yaml:"amount"`
	Description string  `yaml:"description"`
	Date        string  `yaml:"date"`
}

type Task struct {
	Name      string `yaml:"name"`
	Completed bool   `yaml:"completed"`
	Due       string `yaml:"due"`
}

// Accounts is the part of the account store seeding needs.
type Accounts interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, reg accountstore.Registration) (models.User, models.Company, error)
}

// Result reports what Apply did.
type Result struct {
	Skipped   bool
	CompanyID string
	Projects  int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document and checks required fields and dates.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error
	if f.Company.Name == "" {
		errs = append(errs, errors.New("company.name is required"))
	}
	if f.Admin.Email == "" || f.Admin.Password == "" {
		errs = append(errs, errors.New("admin.email and admin.password are required"))
	}
	for i, p := range f.Projects {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: name is required", i))
		}
		if _, err := parseDate(p.StartDate); err != nil {
			errs = append(errs, fmt.Errorf("projects[%d]: start_date: %w", i, err))
		}
		if p.EndDate != "" {
			if _, err := parseDate(p.EndDate); err != nil {
				errs = append(errs, fmt.Errorf("projects[%d]: end_date: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

// Apply registers the company and loads its projects into the ledger.
// Nothing is written when the admin email is already registered.
func Apply(ctx context.Context, f *File, accounts Accounts, store ledger.Store, logger *zap.Logger) (Result, error) {
	exists, err := accounts.EmailExists(ctx, f.Admin.Email)
	if err != nil {
		return Result{}, fmt.Errorf("check seed admin: %w", err)
	}
	if exists {
		logger.Info("seed skipped, admin already registered", zap.String("email", f.Admin.Email))
		return Result{Skipped: true}, nil
	}

	_, company, err := accounts.Register(ctx, accountstore.Registration{
		CompanyName: f.Company.Name,
		Country:     f.Company.Country,
		Industry:    f.Company.Industry,
		FirstName:   f.Admin.FirstName,
		LastName:    f.Admin.LastName,
		Email:       f.Admin.Email,
		Password:    f.Admin.Password,
	})
	if err != nil {
		return Result{}, fmt.Errorf("register seed company: %w", err)
	}

	res := Result{CompanyID: company.ID.Hex()}
	for _, p := range f.Projects {
		if err := addProject(ctx, store, res.CompanyID, p); err != nil {
			return res, fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		res.Projects++
	}

	logger.Info("seed loaded",
		zap.String("company", f.Company.Name),
		zap.String("company_id", res.CompanyID),
		zap.Int("projects", res.Projects))
	return res, nil
}

func addProject(ctx context.Context, store ledger.Store, companyID string, p Project) error {
	start, _ := parseDate(p.StartDate)
	np := ledger.NewProject{Name: p.Name, Description: p.Description, StartDate: start}
	if p.EndDate != "" {
		end, _ := parseDate(p.EndDate)
		np.EndDate = &end
	}

	id, err := store.CreateProject(ctx, companyID, np)
	if err != nil {
		return err
	}

	entryDate := func(e Entry) time.Time {
		if d, err := parseDate(e.Date); err == nil {
			return d
		}
		return start
	}
	for _, e := range p.Income {
		if err := store.AddIncome(ctx, id, e.Amount, e.Description, entryDate(e)); err != nil {
			return err
		}
	}
	for _, e := range p.Expenses {
		if err := store.AddExpense(ctx, id, e.Amount, e.Description, entryDate(e)); err != nil {
			return err
		}
	}
	for _, t := range p.Tasks {
		var due *time.Time
		if d, err := parseDate(t.Due); err == nil {
			due = &d
		}
		if err := store.AddTask(ctx, id, t.Name, t.Completed, due); err != nil {
			return err
		}
	}
	return nil
}
