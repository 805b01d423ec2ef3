// Package indexes reconciles the application's MongoDB indexes at startup.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	projectstore "github.com/dalemusser/projectdash/internal/app/store/projects"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const codeDuplicateKey = 11000

type index struct {
	coll   string
	name   string
	keys   bson.D
	unique bool
}

func asc(fields ...string) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

func ledgerIndex(coll string) index {
	return index{coll, "idx_" + coll + "_project_date", asc("project_id", "date"), false}
}

// wanted lists every index the stores rely on, grouped by collection.
func wanted() []index {
	return []index{
		// email is the login and must be unique across companies
		{accountstore.UsersCollection, "uniq_users_emailci", asc("email_ci"), true},
		{accountstore.UsersCollection, "idx_users_company", asc("company_id"), false},
		{accountstore.CompaniesCollection, "idx_companies_name", asc("name"), false},
		// dashboard listing: one company, creation order
		{projectstore.ProjectsCollection, "idx_projects_company_created__id", asc("company_id", "created_at", "_id"), false},
		ledgerIndex(projectstore.IncomeCollection),
		ledgerIndex(projectstore.ExpensesCollection),
		{projectstore.TasksCollection, "idx_tasks_project_completed", asc("project_id", "completed"), false},
	}
}

// EnsureAll creates the wanted indexes. It is idempotent: an index with the
// same keys, name and uniqueness is left alone, and one with the same keys
// but a different name or uniqueness is dropped and rebuilt. Every failure
// is reported so startup can stop on a broken index set.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	present := map[string]map[string]serverIndex{}
	var errs []error
	for _, ix := range wanted() {
		coll := db.Collection(ix.coll)
		byKeys, ok := present[ix.coll]
		if !ok {
			byKeys = listByKeys(ctx, coll)
			present[ix.coll] = byKeys
		}
		if err := reconcile(ctx, coll, ix, byKeys); err != nil {
			errs = append(errs, fmt.Errorf("%s(%s): %w", ix.coll, ix.name, err))
		}
	}
	return errors.Join(errs...)
}

type serverIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func signature(keys bson.D) string {
	var b strings.Builder
	for i, e := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s:%v", e.Key, e.Value)
	}
	return b.String()
}

// listByKeys returns the collection's indexes keyed by key signature. A
// listing error (collection not created yet) yields an empty map.
func listByKeys(ctx context.Context, coll *mongo.Collection) map[string]serverIndex {
	out := map[string]serverIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var si serverIndex
		if err := cur.Decode(&si); err != nil {
			zap.L().Warn("skipping undecodable index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[signature(si.Key)] = si
	}
	return out
}

func reconcile(ctx context.Context, coll *mongo.Collection, ix index, byKeys map[string]serverIndex) error {
	sig := signature(ix.keys)
	log := zap.L().With(
		zap.String("collection", ix.coll),
		zap.String("name", ix.name),
		zap.String("keys", sig),
	)

	if cur, ok := byKeys[sig]; ok {
		if cur.Name == ix.name && cur.Unique == ix.unique {
			log.Debug("index up to date")
			return nil
		}
		if _, err := coll.Indexes().DropOne(ctx, cur.Name); err != nil {
			return fmt.Errorf("drop %s: %w", cur.Name, err)
		}
		log.Info("dropped index with stale name or options", zap.String("old_name", cur.Name))
		delete(byKeys, sig)
	}

	start := time.Now()
	opts := options.Index().SetName(ix.name)
	if ix.unique {
		opts.SetUnique(true)
	}
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: ix.keys, Options: opts}); err != nil {
		log.Warn("index create failed", zap.Error(err))
		if ix.unique && isDuplicateKey(err) {
			return errors.New("cannot create unique index (duplicates present)")
		}
		return err
	}
	byKeys[sig] = serverIndex{Name: ix.name, Key: ix.keys, Unique: ix.unique}
	log.Info("index ensured", zap.Bool("unique", ix.unique), zap.Duration("took", time.Since(start)))
	return nil
}

func isDuplicateKey(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeDuplicateKey {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}
