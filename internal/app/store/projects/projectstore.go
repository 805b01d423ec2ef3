// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	ProjectsCollection = "projects"
	IncomeCollection   = "income"
	ExpensesCollection = "expenses"
	TasksCollection    = "tasks"
)

// Store is the Mongo ledger backend.
type Store struct {
	db       *mongo.Database
	projects *mongo.Collection
	income   *mongo.Collection
	expenses *mongo.Collection
	tasks    *mongo.Collection
}

var _ ledger.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		projects: db.Collection(ProjectsCollection),
		income:   db.Collection(IncomeCollection),
		expenses: db.Collection(ExpensesCollection),
		tasks:    db.Collection(TasksCollection),
	}
}

// CreateProject inserts a project and returns its hex id.
func (s *Store) CreateProject(ctx context.Context, companyID string, p ledger.NewProject) (string, error) {
	cid, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return "", fmt.Errorf("company id: %w", err)
	}
	doc := models.ProjectDoc{
		ID:          primitive.NewObjectID(),
		CompanyID:   cid,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if p.EndDate != nil {
		end := p.EndDate.UTC()
		doc.EndDate = &end
	}
	if _, err := s.projects.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (s *Store) AddIncome(ctx context.Context, projectID string, amount float64, description string, date time.Time) error {
	return s.addEntry(ctx, s.income, projectID, amount, description, date)
}

func (s *Store) AddExpense(ctx context.Context, projectID string, amount float64, description string, date time.Time) error {
	return s.addEntry(ctx, s.expenses, projectID, amount, description, date)
}

func (s *Store) addEntry(ctx context.Context, c *mongo.Collection, projectID string, amount float64, description string, date time.Time) error {
	pid, err := s.projectID(ctx, projectID)
	if err != nil {
		return err
	}
	_, err = c.InsertOne(ctx, models.LedgerEntry{
		ID:          primitive.NewObjectID(),
		ProjectID:   pid,
		Amount:      amount,
		Description: description,
		Date:        date.UTC(),
	})
	return err
}

// AddTask records a task used for the completion percentage.
func (s *Store) AddTask(ctx context.Context, projectID, name string, completed bool, due *time.Time) error {
	pid, err := s.projectID(ctx, projectID)
	if err != nil {
		return err
	}
	_, err = s.tasks.InsertOne(ctx, models.Task{
		ID:        primitive.NewObjectID(),
		ProjectID: pid,
		Name:      name,
		Completed: completed,
		DueDate:   due,
	})
	return err
}

// projectID parses a hex id and checks the project exists.
func (s *Store) projectID(ctx context.Context, hex string) (primitive.ObjectID, error) {
	pid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ledger.ErrProjectNotFound
	}
	err = s.projects.FindOne(ctx, bson.M{"_id": pid}).Err()
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, ledger.ErrProjectNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return pid, nil
}

// sumLookup joins the total of a ledger collection onto each project.
func sumLookup(from, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": from,
		"let":  bson.M{"pid": "$_id"},
		"pipeline": bson.A{
			bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$project_id", "$$pid"}}}},
			bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
		},
		"as": as,
	}}}
}

type financialsDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	StartDate   time.Time          `bson:"start_date"`
	EndDate     *time.Time         `bson:"end_date"`
	Income      []struct {
		Total float64 `bson:"total"`
	} `bson:"income"`
	Expenses []struct {
		Total float64 `bson:"total"`
	} `bson:"expenses"`
	Tasks []struct {
		Total     int `bson:"total"`
		Completed int `bson:"completed"`
	} `bson:"tasks"`
}

// financialsPipeline aggregates income, expenses and task counts per
// project. Each sum is computed in its own lookup so entries are never
// multiplied by a join.
func financialsPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		sumLookup(IncomeCollection, "income"),
		sumLookup(ExpensesCollection, "expenses"),
		{{Key: "$lookup", Value: bson.M{
			"from": TasksCollection,
			"let":  bson.M{"pid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$project_id", "$$pid"}}}},
				bson.M{"$group": bson.M{
					"_id":       nil,
					"total":     bson.M{"$sum": 1},
					"completed": bson.M{"$sum": bson.M{"$cond": bson.A{"$completed", 1, 0}}},
				}},
			},
			"as": "tasks",
		}}},
	}
}

func (d financialsDoc) row() ledger.Row {
	row := ledger.Row{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
	}
	if len(d.Income) > 0 {
		row.Income = d.Income[0].Total
	}
	if len(d.Expenses) > 0 {
		row.Expenses = d.Expenses[0].Total
	}
	if len(d.Tasks) > 0 {
		row.TasksTotal = d.Tasks[0].Total
		row.TasksCompleted = d.Tasks[0].Completed
	}
	return row
}

func (s *Store) financials(ctx context.Context, match bson.M, today time.Time) ([]models.Project, error) {
	cur, err := s.projects.Aggregate(ctx, financialsPipeline(match))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	for cur.Next(ctx) {
		var d financialsDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.row().Project(today))
	}
	return out, cur.Err()
}

// ListFinancials returns the company's projects in creation order.
func (s *Store) ListFinancials(ctx context.Context, companyID string, today time.Time) ([]models.Project, error) {
	cid, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return []models.Project{}, nil
	}
	return s.financials(ctx, bson.M{"company_id": cid}, today)
}

func (s *Store) GetProject(ctx context.Context, companyID, projectID string, today time.Time) (ledger.Detail, error) {
	cid, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return ledger.Detail{}, ledger.ErrProjectNotFound
	}
	pid, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return ledger.Detail{}, ledger.ErrProjectNotFound
	}

	found, err := s.financials(ctx, bson.M{"_id": pid, "company_id": cid}, today)
	if err != nil {
		return ledger.Detail{}, err
	}
	if len(found) == 0 {
		return ledger.Detail{}, ledger.ErrProjectNotFound
	}
	d := ledger.Detail{Project: found[0]}

	if d.Income, err = s.entries(ctx, s.income, pid); err != nil {
		return ledger.Detail{}, err
	}
	if d.Expenses, err = s.entries(ctx, s.expenses, pid); err != nil {
		return ledger.Detail{}, err
	}
	if d.Tasks, err = s.taskList(ctx, pid); err != nil {
		return ledger.Detail{}, err
	}
	return d, nil
}

func (s *Store) entries(ctx context.Context, c *mongo.Collection, pid primitive.ObjectID) ([]ledger.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.Find(ctx, bson.M{"project_id": pid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []ledger.Entry{}
	for cur.Next(ctx) {
		var e models.LedgerEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, ledger.Entry{
			Date:        e.Date.UTC().Format(models.DateLayout),
			Amount:      e.Amount,
			Description: e.Description,
		})
	}
	return out, cur.Err()
}

func (s *Store) taskList(ctx context.Context, pid primitive.ObjectID) ([]ledger.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"project_id": pid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var dated, undated []ledger.Task
	for cur.Next(ctx) {
		var t models.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		lt := ledger.Task{Name: t.Name, Completed: t.Completed}
		if t.DueDate != nil {
			due := t.DueDate.UTC().Format(models.DateLayout)
			lt.DueDate = &due
			dated = append(dated, lt)
			continue
		}
		undated = append(undated, lt)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(dated, func(i, j int) bool { return *dated[i].DueDate < *dated[j].DueDate })
	return append(append([]ledger.Task{}, dated...), undated...), nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}
