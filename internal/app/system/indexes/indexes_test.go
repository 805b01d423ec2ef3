package indexes_test

import (
	"testing"

	"github.com/dalemusser/projectdash/internal/app/system/indexes"
	"github.com/dalemusser/projectdash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	tests := []struct {
		coll string
		want []string
	}{
		{"users", []string{"uniq_users_emailci", "idx_users_company"}},
		{"companies", []string{"idx_companies_name"}},
		{"projects", []string{"idx_projects_company_created__id"}},
		{"income", []string{"idx_income_project_date"}},
		{"expenses", []string{"idx_expenses_project_date"}},
		{"tasks", []string{"idx_tasks_project_completed"}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, db, tt.coll)
			for _, want := range tt.want {
				if !names[want] {
					t.Errorf("expected index %q on %s, have %v", want, tt.coll, names)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("companies")
	if _, err := coll.Indexes().DropOne(ctx, "idx_companies_name"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("legacy_name"),
	}); err != nil {
		t.Fatalf("create legacy index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "companies")
	if names["legacy_name"] || !names["idx_companies_name"] {
		t.Errorf("expected legacy index replaced, have %v", names)
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email_ci": "a@example.com"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email_ci": "a@example.com"}); err == nil {
		t.Error("expected duplicate key error on users.email_ci")
	}
}
