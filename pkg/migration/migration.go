// Package migration runs registered schema migrations in batches and tracks
// them in a schema_migrations table.
//
//	func init() {
//	    migration.Register("20240301000000_create_categories_table", &CreateCategoriesTable{})
//	}
package migration

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "schema_migrations" }

// ------------------- Registry -------------------

type registeredMigration struct {
	name string
	m    Migration
}

var registry []registeredMigration

// Register adds a migration. name is timestamp-prefixed so that lexical
// order is chronological order.
func Register(name string, m Migration) {
	for _, reg := range registry {
		if reg.name == name {
			panic(fmt.Sprintf("migration: %s registered twice", name))
		}
	}
	registry = append(registry, registeredMigration{name: name, m: m})
}

func sorted() []registeredMigration {
	out := append([]registeredMigration(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ------------------- Runner -------------------

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type Runner struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

// EnsureTable creates the tracking table if it does not exist. An existing
// table is left alone.
func (r *Runner) EnsureTable() error {
	if r.db.Migrator().HasTable(&migrationRecord{}) {
		return nil
	}
	return r.db.Migrator().CreateTable(&migrationRecord{})
}

func (r *Runner) ran() (map[string]migrationRecord, error) {
	var rows []migrationRecord
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]migrationRecord, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Run applies every pending migration as one new batch and returns the
// names applied. Each migration and its tracking row commit together.
func (r *Runner) Run() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	done, err := r.ran()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch ran: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil {
		return nil, err
	}
	batch++

	var applied []string
	for _, reg := range sorted() {
		if _, ok := done[reg.name]; ok {
			continue
		}

		logger.Info("migration: running", "name", reg.name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return fmt.Errorf("%s up: %w", reg.name, err)
			}
			return tx.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration: %w", err)
		}
		applied = append(applied, reg.name)
	}

	logger.Info("migration: done", "ran", len(applied), "batch", batch)
	return applied, nil
}

// Rollback reverses the most recent batch, newest first, and returns the
// names rolled back.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil || batch == 0 {
		return nil, err
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("name desc").Find(&records).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		byName[reg.name] = reg.m
	}

	var reverted []string
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return reverted, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return fmt.Errorf("%s down: %w", rec.Name, err)
			}
			return tx.Delete(&migrationRecord{}, rec.ID).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migration: %w", err)
		}
		reverted = append(reverted, rec.Name)
	}
	return reverted, nil
}

// Status lists every registered migration and whether it has run.
func (r *Runner) Status() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}

	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	regs := sorted()
	out := make([]Status, 0, len(regs))
	for _, reg := range regs {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() (int, error) {
	var max *int
	if err := r.db.Model(&migrationRecord{}).Select("MAX(batch)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
