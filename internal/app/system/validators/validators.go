// Package validators creates the application's collections and attaches
// JSON-Schema validators to them.
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	projectstore "github.com/dalemusser/projectdash/internal/app/store/projects"
	"github.com/dalemusser/projectdash/internal/app/system/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Mongo server error codes the ensure flow treats specially.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115
)

type collection struct {
	name   string
	schema bson.M
}

func collections() []collection {
	return []collection{
		{accountstore.CompaniesCollection, companiesSchema()},
		{accountstore.UsersCollection, usersSchema()},
		{projectstore.ProjectsCollection, projectsSchema()},
		{projectstore.IncomeCollection, ledgerEntrySchema()},
		{projectstore.ExpensesCollection, ledgerEntrySchema()},
		{projectstore.TasksCollection, tasksSchema()},
	}
}

// EnsureAll creates missing collections and applies their validators.
// Servers without collMod support (some DocumentDB versions) keep the
// collections unvalidated. Failures are collected so one bad collection
// does not hide the rest.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		zap.L().Warn("listing collections failed; creating blindly", zap.Error(err))
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var errs []error
	for _, c := range collections() {
		if err := ensure(ctx, db, c, have[c.name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

func ensure(ctx context.Context, db *mongo.Database, c collection, exists bool) error {
	log := zap.L().With(zap.String("collection", c.name))

	if !exists {
		err := db.CreateCollection(ctx, c.name)
		switch {
		case err == nil:
			log.Info("created collection")
		case hasCode(err, codeNamespaceExists, "already exists", "namespace exists"):
			// created concurrently
		default:
			return err
		}
	}

	err := db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: c.name},
		{Key: "validator", Value: c.schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}).Err()
	switch {
	case err == nil:
		log.Info("validator ensured")
		return nil
	case hasCode(err, codeCommandNotFound, "no such command"),
		hasCode(err, codeNotImplemented, "not implemented", "not supported"):
		log.Info("validator skipped (unsupported)")
		return nil
	default:
		return err
	}
}

// hasCode matches a server error by code, falling back to message text for
// drivers and proxies that do not surface the code.
func hasCode(err error, code int32, phrases ...string) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func jsonSchema(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   required,
		"properties": props,
	}}
}

var (
	objectID     = bson.M{"bsonType": "objectId"}
	anyString    = bson.M{"bsonType": "string"}
	nonBlank     = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	date         = bson.M{"bsonType": "date"}
	optionalDate = bson.M{"bsonType": bson.A{"date", "null"}}
)

func companiesSchema() bson.M {
	return jsonSchema(bson.A{"name"}, bson.M{
		"name":     nonBlank,
		"country":  anyString,
		"industry": anyString,
	})
}

func usersSchema() bson.M {
	return jsonSchema(bson.A{"company_id", "first_name", "email", "email_ci", "password_hash", "role"}, bson.M{
		"company_id":    objectID,
		"first_name":    nonBlank,
		"last_name":     anyString,
		"email":         bson.M{"bsonType": "string", "minLength": 3},
		"email_ci":      bson.M{"bsonType": "string", "minLength": 3},
		"password_hash": bson.M{"bsonType": "string", "minLength": 1},
		"role":          bson.M{"enum": bson.A{auth.RoleAdmin, auth.RoleMember}},
	})
}

func projectsSchema() bson.M {
	return jsonSchema(bson.A{"company_id", "name", "start_date"}, bson.M{
		"company_id":  objectID,
		"name":        nonBlank,
		"description": anyString,
		"start_date":  date,
		"end_date":    optionalDate,
	})
}

func ledgerEntrySchema() bson.M {
	return jsonSchema(bson.A{"project_id", "amount", "date"}, bson.M{
		"project_id":  objectID,
		"amount":      bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}},
		"description": anyString,
		"date":        date,
	})
}

func tasksSchema() bson.M {
	return jsonSchema(bson.A{"project_id", "name", "completed"}, bson.M{
		"project_id": objectID,
		"name":       bson.M{"bsonType": "string", "minLength": 1},
		"completed":  bson.M{"bsonType": "bool"},
		"due_date":   optionalDate,
	})
}
