package sqliteledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/domain/models"
)

// Task status values as stored in the tasks table.
const (
	taskDone = "Completed"
	taskTodo = "To Do"
)

// Store implements ledger.Store on sqlite.
type Store struct {
	db *DB
}

var _ ledger.Store = (*Store)(nil)

func New(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateProject(ctx context.Context, companyID string, p ledger.NewProject) (string, error) {
	var end any
	if p.EndDate != nil {
		end = p.EndDate.UTC().Format(models.DateLayout)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (company_id, name, description, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		companyID, p.Name, p.Description, p.StartDate.UTC().Format(models.DateLayout), end)
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *Store) AddIncome(ctx context.Context, projectID string, amount float64, description string, date time.Time) error {
	return s.addEntry(ctx, "income", projectID, amount, description, date)
}

func (s *Store) AddExpense(ctx context.Context, projectID string, amount float64, description string, date time.Time) error {
	return s.addEntry(ctx, "expenses", projectID, amount, description, date)
}

// table is one of the two fixed ledger table names.
func (s *Store) addEntry(ctx context.Context, table, projectID string, amount float64, description string, date time.Time) error {
	pid, err := strconv.ParseInt(projectID, 10, 64)
	if err != nil {
		return ledger.ErrProjectNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (project_id, type, date, amount) VALUES (?, ?, ?, ?)`,
		pid, description, date.UTC().Format(models.DateLayout), amount)
	return mapErr(err)
}

func (s *Store) AddTask(ctx context.Context, projectID, name string, completed bool, due *time.Time) error {
	pid, err := strconv.ParseInt(projectID, 10, 64)
	if err != nil {
		return ledger.ErrProjectNotFound
	}
	status := taskTodo
	if completed {
		status = taskDone
	}
	var dueDate any
	if due != nil {
		dueDate = due.UTC().Format(models.DateLayout)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, title, due_date, status) VALUES (?, ?, ?, ?)`,
		pid, name, dueDate, status)
	return mapErr(err)
}

// financialsSelect sums each ledger table in its own subquery. Joining both
// tables at once would multiply income rows by expense rows.
const financialsSelect = `
SELECT
    p.id,
    p.name,
    p.description,
    p.start_date,
    p.end_date,
    COALESCE((SELECT SUM(i.amount) FROM income i WHERE i.project_id = p.id), 0),
    COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.project_id = p.id), 0),
    (SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
    (SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id AND t.status = 'Completed')
FROM projects p
`

const listFinancials = financialsSelect + `WHERE p.company_id = ? ORDER BY p.id`

const oneFinancials = financialsSelect + `WHERE p.company_id = ? AND p.id = ?`

func (s *Store) ListFinancials(ctx context.Context, companyID string, today time.Time) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, listFinancials, companyID)
	if err != nil {
		return nil, fmt.Errorf("query financials: %w", err)
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		p, err := scanFinancials(rows, today)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanFinancials(rows *sql.Rows, today time.Time) (models.Project, error) {
	var (
		id    int64
		r     ledger.Row
		start string
		end   sql.NullString
	)
	if err := rows.Scan(&id, &r.Name, &r.Description, &start, &end,
		&r.Income, &r.Expenses, &r.TasksTotal, &r.TasksCompleted); err != nil {
		return models.Project{}, fmt.Errorf("scan financials: %w", err)
	}
	r.ID = strconv.FormatInt(id, 10)
	var err error
	if r.StartDate, err = time.Parse(models.DateLayout, start); err != nil {
		return models.Project{}, fmt.Errorf("project %d start date: %w", id, err)
	}
	if end.Valid && end.String != "" {
		t, err := time.Parse(models.DateLayout, end.String)
		if err != nil {
			return models.Project{}, fmt.Errorf("project %d end date: %w", id, err)
		}
		r.EndDate = &t
	}
	return r.Project(today), nil
}

func (s *Store) GetProject(ctx context.Context, companyID, projectID string, today time.Time) (ledger.Detail, error) {
	pid, err := strconv.ParseInt(projectID, 10, 64)
	if err != nil {
		return ledger.Detail{}, ledger.ErrProjectNotFound
	}

	rows, err := s.db.QueryContext(ctx, oneFinancials, companyID, pid)
	if err != nil {
		return ledger.Detail{}, fmt.Errorf("query project: %w", err)
	}
	var d ledger.Detail
	found := false
	if rows.Next() {
		d.Project, err = scanFinancials(rows, today)
		found = err == nil
	}
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ledger.Detail{}, err
	}
	if !found {
		return ledger.Detail{}, ledger.ErrProjectNotFound
	}

	if d.Income, err = s.entries(ctx, "income", pid); err != nil {
		return ledger.Detail{}, err
	}
	if d.Expenses, err = s.entries(ctx, "expenses", pid); err != nil {
		return ledger.Detail{}, err
	}
	if d.Tasks, err = s.taskList(ctx, pid); err != nil {
		return ledger.Detail{}, err
	}
	return d, nil
}

// table is one of the two fixed ledger table names.
func (s *Store) entries(ctx context.Context, table string, pid int64) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, amount, type FROM `+table+` WHERE project_id = ? ORDER BY date DESC, id DESC`, pid)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := []ledger.Entry{}
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.Date, &e.Amount, &e.Description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) taskList(ctx context.Context, pid int64) ([]ledger.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, status, due_date FROM tasks WHERE project_id = ?
		 ORDER BY due_date IS NULL, due_date, id`, pid)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := []ledger.Task{}
	for rows.Next() {
		var (
			t      ledger.Task
			status string
			due    sql.NullString
		)
		if err := rows.Scan(&t.Name, &status, &due); err != nil {
			return nil, fmt.Errorf("scan tasks: %w", err)
		}
		t.Completed = status == taskDone
		if due.Valid && due.String != "" {
			d := due.String
			t.DueDate = &d
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapErr turns a foreign key violation into ErrProjectNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return ledger.ErrProjectNotFound
	}
	return err
}
