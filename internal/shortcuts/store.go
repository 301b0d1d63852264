// Package shortcuts owns the durable trigger → expansion table and keeps the
// abbreviation listener's live table in step with it.
package shortcuts

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrDuplicateTrigger = errors.New("shortcut already exists")
	ErrNotFound         = errors.New("shortcut not found")
	ErrEmptyField       = errors.New("trigger and expansion are both required")
	ErrClosed           = errors.New("shortcut store is closed")
	ErrInvalidTrigger   = errors.New("trigger cannot contain spaces or punctuation")
)

// IsBoundary reports whether r ends a typed word. A trigger is a run of
// non-boundary characters.
func IsBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

// ShortcutEntry is one row of the shortcuts table. The column names match
// databases written by earlier versions, which only had shortcut and expansion.
type ShortcutEntry struct {
	Trigger   string       `gorm:"column:shortcut;primaryKey"`
	Expansion string       `gorm:"column:expansion"`
	Temporary bool         `gorm:"column:temporary;default:false"`
	AddedAt   sql.NullTime `gorm:"column:created_at"`
}

func (ShortcutEntry) TableName() string {
	return "shortcuts"
}

// Mirror is the in-memory copy of the table consulted on the keystroke path.
type Mirror interface {
	AddAbbreviation(trigger, expansion string)
	RemoveAbbreviation(trigger string)
	ReplaceAbbreviations(table map[string]string)
}

const (
	// 1 - shortcut, expansion
	// 2 - added temporary and created_at
	shortcutsSchemaVersion = 2
)

type Store struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger

	// mu serializes mutations so the durable write and the mirror update of
	// one call are never interleaved with another call's.
	mu     sync.Mutex
	mirror Mirror
	closed bool

	purgeOnce sync.Once
}

func NewStore(dbFilePath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking shortcut db: %w", err)
	}

	dsn := dbFilePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening shortcut db: %w", err)
	}

	// SQLite has a single writer; one connection keeps every call a short
	// sequential transaction.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	store := &Store{
		db:     db,
		path:   dbFilePath,
		logger: logger,
	}

	if store.needsMigration(dbFileExists) {
		logger.Info("migrating shortcut db schema", zap.String("path", dbFilePath))
		if err := db.AutoMigrate(&ShortcutEntry{}); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error auto-migrating shortcut db schema: %w", err)
		}
		if err := store.writeSchemaVersion(shortcutsSchemaVersion); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error writing shortcut schema version: %w", err)
		}
	}

	return store, nil
}

func (s *Store) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := s.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// The marker may survive a database that was replaced by hand, for
	// instance with a copy made by an older version.
	migrator := s.db.Migrator()
	return !migrator.HasTable(&ShortcutEntry{}) || !migrator.HasColumn(&ShortcutEntry{}, "Temporary")
}

func (s *Store) schemaVersionPath() string {
	return s.path + ".version"
}

func (s *Store) writeSchemaVersion(version int) error {
	return os.WriteFile(s.schemaVersionPath(), []byte(strconv.Itoa(version)), 0644)
}

func (s *Store) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(s.schemaVersionPath())
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != shortcutsSchemaVersion {
		return false, fmt.Errorf("shortcut schema version mismatch: got %d, want %d", version, shortcutsSchemaVersion)
	}
	return true, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load attaches the mirror and seeds it with every stored shortcut.
// Temporary shortcuts left behind by a session that did not shut down
// cleanly are loaded too; they are purged at the next clean shutdown.
func (s *Store) Load(mirror Mirror) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	entries, err := s.listLocked()
	if err != nil {
		return err
	}

	s.mirror = mirror
	if mirror != nil {
		mirror.ReplaceAbbreviations(toTable(entries))
	}

	s.logger.Debug("loaded shortcuts into listener", zap.Int("count", len(entries)))
	return nil
}

// Reload re-reads the table and replaces the mirror content. It picks up
// changes written by another process.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.mirror == nil {
		return nil
	}

	entries, err := s.listLocked()
	if err != nil {
		return err
	}
	s.mirror.ReplaceAbbreviations(toTable(entries))
	return nil
}

// Add persists a new shortcut and then makes it live in the mirror.
func (s *Store) Add(trigger, expansion string, temporary bool) error {
	trigger = strings.TrimSpace(trigger)
	expansion = strings.TrimSpace(expansion)
	if trigger == "" || expansion == "" {
		return ErrEmptyField
	}
	if strings.ContainsFunc(trigger, IsBoundary) {
		return fmt.Errorf("%w: %q", ErrInvalidTrigger, trigger)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	entry := ShortcutEntry{
		Trigger:   trigger,
		Expansion: expansion,
		Temporary: temporary,
		AddedAt:   sql.NullTime{Time: time.Now(), Valid: true},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ShortcutEntry{}).Where("shortcut = ?", trigger).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateTrigger
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateTrigger) || isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateTrigger, trigger)
		}
		return fmt.Errorf("failed to add shortcut %q: %w", trigger, err)
	}

	if s.mirror != nil {
		s.mirror.AddAbbreviation(trigger, expansion)
	}

	s.logger.Info("shortcut added",
		zap.String("trigger", trigger),
		zap.Bool("temporary", temporary),
	)
	return nil
}

// Remove deletes a shortcut and then drops it from the mirror.
// ErrNotFound is returned when the trigger is absent; callers generally
// treat that as success, see IgnoreNotFound.
func (s *Store) Remove(trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	result := s.db.Where("shortcut = ?", trigger).Delete(&ShortcutEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove shortcut %q: %w", trigger, result.Error)
	}

	// The durable row is gone either way, so the mirror must not keep it.
	if s.mirror != nil {
		s.mirror.RemoveAbbreviation(trigger)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, trigger)
	}

	s.logger.Info("shortcut removed", zap.String("trigger", trigger))
	return nil
}

// List returns every shortcut ordered by trigger.
func (s *Store) List() ([]ShortcutEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.listLocked()
}

func (s *Store) listLocked() ([]ShortcutEntry, error) {
	var entries []ShortcutEntry
	if err := s.db.Order("shortcut asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list shortcuts: %w", err)
	}
	return entries, nil
}

// Search returns the shortcuts whose trigger or expansion contains query,
// ignoring case. An empty query returns everything.
func (s *Store) Search(query string) ([]ShortcutEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	return Filter(entries, query), nil
}

// PurgeTemporary deletes all temporary shortcuts. Only the first call on a
// Store does anything; it is meant to run once at orderly shutdown, before
// Close.
func (s *Store) PurgeTemporary() ([]ShortcutEntry, error) {
	var purged []ShortcutEntry
	var purgeErr error

	s.purgeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			purgeErr = ErrClosed
			return
		}

		purgeErr = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("temporary = ?", true).Find(&purged).Error; err != nil {
				return err
			}
			return tx.Where("temporary = ?", true).Delete(&ShortcutEntry{}).Error
		})
		if purgeErr != nil {
			purged = nil
			purgeErr = fmt.Errorf("failed to purge temporary shortcuts: %w", purgeErr)
			return
		}

		if s.mirror != nil {
			for _, entry := range purged {
				s.mirror.RemoveAbbreviation(entry.Trigger)
			}
		}

		s.logger.Info("purged temporary shortcuts", zap.Int("count", len(purged)))
	})

	return purged, purgeErr
}

// Close closes the database. Every later call fails with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IgnoreNotFound turns ErrNotFound into success, for idempotent deletes.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toTable(entries []ShortcutEntry) map[string]string {
	return lo.SliceToMap(entries, func(entry ShortcutEntry) (string, string) {
		return entry.Trigger, entry.Expansion
	})
}
