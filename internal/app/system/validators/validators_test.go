package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/validators"
	"github.com/dalemusser/projectdash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Second call should also succeed (idempotent)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expectedCollections := []string{"companies", "users", "projects", "income", "expenses", "tasks"}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}

	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range expectedCollections {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	valid := bson.M{
		"company_id":    primitive.NewObjectID(),
		"first_name":    "Ada",
		"email":         "ada@example.com",
		"email_ci":      "ada@example.com",
		"password_hash": "$2a$04$abcdefghijklmnopqrstuv",
		"role":          "admin",
	}
	if _, err := db.Collection("users").InsertOne(ctx, valid); err != nil {
		t.Errorf("insert valid user failed: %v", err)
	}

	tests := []struct {
		name string
		doc  bson.M
	}{
		{"missing fields", bson.M{"email": "x@example.com"}},
		{"unknown role", bson.M{
			"company_id":    primitive.NewObjectID(),
			"first_name":    "Bob",
			"email":         "bob@example.com",
			"email_ci":      "bob@example.com",
			"password_hash": "hash",
			"role":          "superadmin",
		}},
		{"blank first name", bson.M{
			"company_id":    primitive.NewObjectID(),
			"first_name":    "   ",
			"email":         "c@example.com",
			"email_ci":      "c@example.com",
			"password_hash": "hash",
			"role":          "member",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Collection("users").InsertOne(ctx, tt.doc); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProjectsValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("projects").InsertOne(ctx, bson.M{
		"company_id": primitive.NewObjectID(),
		"name":       "Warehouse roof",
		"start_date": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"end_date":   nil,
	})
	if err != nil {
		t.Errorf("insert valid project failed: %v", err)
	}

	_, err = db.Collection("projects").InsertOne(ctx, bson.M{
		"company_id": primitive.NewObjectID(),
		"name":       "No start date",
	})
	if err == nil {
		t.Error("expected validation error for project without start_date")
	}

	_, err = db.Collection("projects").InsertOne(ctx, bson.M{
		"company_id": "not-an-object-id",
		"name":       "Bad company",
		"start_date": time.Now(),
	})
	if err == nil {
		t.Error("expected validation error for string company_id")
	}
}

func TestLedgerValidators(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, coll := range []string{"income", "expenses"} {
		t.Run(coll, func(t *testing.T) {
			_, err := db.Collection(coll).InsertOne(ctx, bson.M{
				"project_id": primitive.NewObjectID(),
				"amount":     1250.5,
				"date":       time.Now().UTC(),
			})
			if err != nil {
				t.Errorf("insert valid entry failed: %v", err)
			}

			_, err = db.Collection(coll).InsertOne(ctx, bson.M{
				"project_id": primitive.NewObjectID(),
				"amount":     "1250.50",
				"date":       time.Now().UTC(),
			})
			if err == nil {
				t.Error("expected validation error for string amount")
			}
		})
	}
}

func TestTasksValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("tasks").InsertOne(ctx, bson.M{
		"project_id": primitive.NewObjectID(),
		"name":       "Pour foundation",
		"completed":  true,
	})
	if err != nil {
		t.Errorf("insert valid task failed: %v", err)
	}

	_, err = db.Collection("tasks").InsertOne(ctx, bson.M{
		"project_id": primitive.NewObjectID(),
		"name":       "Status as text",
		"completed":  "Completed",
	})
	if err == nil {
		t.Error("expected validation error for string completed")
	}
}
