package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/journal"
	"github.com/xraph/vault/snapshot"
	vaultstore "github.com/xraph/vault/store"
)

// Collection name constants.
const (
	colJournal   = "vault_journal"
	colSnapshots = "vault_snapshots"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Journal ====================

func (s *Store) AppendEntries(ctx context.Context, entries []*journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		m := toJournalEntryModel(e)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Skip duplicates so a retried flush is idempotent
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("vault/mongo: append entry: %w", err)
		}
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, vaultID id.VaultID, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []journalEntryModel

	filter := bson.M{"vault_id": vaultID.String()}
	if !opts.Account.IsNil() {
		filter["account"] = opts.Account.String()
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	ts := bson.M{}
	if !opts.Start.IsZero() {
		ts["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		ts["$lt"] = opts.End
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list entries: %w", err)
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromJournalEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*journalEntryModel)(nil)).
		Filter(bson.M{"timestamp": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: purge entries: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Snapshots ====================

func (s *Store) SaveSnapshot(ctx context.Context, st *snapshot.State) error {
	m := toSnapshotModel(st)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context, vaultID id.VaultID) (*snapshot.State, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"vault_id": vaultID.String()}).
		Sort(bson.D{{Key: "taken_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("vault/mongo: latest snapshot: %w", err)
	}
	return fromSnapshotModel(&m)
}

// ==================== Helpers ====================

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colJournal: {
			{Keys: bson.D{{Key: "vault_id", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "vault_id", Value: 1}, {Key: "account", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "vault_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
		colSnapshots: {
			{Keys: bson.D{{Key: "vault_id", Value: 1}, {Key: "taken_at", Value: -1}}},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
