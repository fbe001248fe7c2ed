package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvEntry is the single table backing SQLStore.
type kvEntry struct {
	EntryKey  string         `gorm:"primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"not null"`
	Version   int64          `gorm:"not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLStore persists entries in a relational database through GORM (PostgreSQL in production, SQLite in tests).
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore migrates the backing table and returns the store.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (Entry, error) {
	var row kvEntry
	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("sql get %s: %w", key, err)
	}
	return row.entry(), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("excluded.value"),
				"version":    gorm.Expr("kv_entries.version + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&kvEntry{EntryKey: key, Value: datatypes.JSON(value), Version: 1})
		if upsert.Error != nil {
			return upsert.Error
		}

		var row kvEntry
		if err := tx.Where("entry_key = ?", key).Take(&row).Error; err != nil {
			return err
		}
		version = row.Version
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sql set %s: %w", key, err)
	}
	return version, nil
}

func (s *SQLStore) CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	db := s.db.WithContext(ctx)

	if expected == 0 {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&kvEntry{
			EntryKey: key,
			Value:    datatypes.JSON(value),
			Version:  1,
		})
		if result.Error != nil {
			return 0, fmt.Errorf("sql compare-and-swap %s: %w", key, result.Error)
		}
		if result.RowsAffected == 0 {
			return 0, ErrVersionConflict
		}
		return 1, nil
	}

	result := db.Model(&kvEntry{}).
		Where("entry_key = ? AND version = ?", key, expected).
		Updates(map[string]interface{}{
			"value":      datatypes.JSON(value),
			"version":    expected + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("sql compare-and-swap %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return expected + 1, nil
}

func (s *SQLStore) ScanPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	var rows []kvEntry
	if err := s.db.WithContext(ctx).
		Where(`entry_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("entry_key ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql scan %s: %w", prefix, err)
	}

	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry())
	}
	return out, nil
}

func (r kvEntry) entry() Entry {
	return Entry{Key: r.EntryKey, Value: []byte(r.Value), Version: r.Version}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
