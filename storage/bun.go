package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-courier"
	"github.com/uptrace/bun"
)

// SecureValueModel is the bun model backing BunStore.
type SecureValueModel struct {
	bun.BaseModel `bun:"table:secure_values"`

	Key       string    `bun:"slot_key,pk"`
	Value     string    `bun:"slot_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore implements courier.BatchStore on a SQL table.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewBunStore creates a store using db. Call CreateTable once before use.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db, now: time.Now}
}

// CreateTable creates the secure_values table when it does not exist.
func (s *BunStore) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*SecureValueModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create secure_values: %w", err)
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	var model SecureValueModel
	err := s.db.NewSelect().
		Model(&model).
		Where("slot_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

func (s *BunStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *BunStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.NewDelete().
		Model((*SecureValueModel)(nil)).
		Where("slot_key = ?", key).
		Exec(ctx)
	return err
}

// SetMany upserts every value in a single transaction.
func (s *BunStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "" {
			return ErrEmptyKey
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now()
	models := make([]SecureValueModel, 0, len(keys))
	for _, key := range keys {
		models = append(models, SecureValueModel{Key: key, Value: values[key], UpdatedAt: now})
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&models).
			On("CONFLICT (slot_key) DO UPDATE").
			Set("slot_value = EXCLUDED.slot_value").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

// DeleteMany removes every key in a single transaction.
func (s *BunStore) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*SecureValueModel)(nil)).
			Where("slot_key IN (?)", bun.In(keys)).
			Exec(ctx)
		return err
	})
}

var _ courier.BatchStore = (*BunStore)(nil)
