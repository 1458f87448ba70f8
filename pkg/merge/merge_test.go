package merge

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tidewell-health/platform/pkg/common/logger"
	"github.com/tidewell-health/platform/pkg/patient"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := patient.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	rules := DefaultRules()
	resolver := NewResolver(rules.ExcludedColumns)
	registry := NewRegistry(resolver, rules)
	service := NewService(db, registry, resolver, NewQueueFlagger(), nil)
	return service, db
}

func newTestMaintainer(t *testing.T, db *gorm.DB) *Maintainer {
	t.Helper()
	rules := DefaultRules()
	resolver := NewResolver(rules.ExcludedColumns)
	registry := NewRegistry(resolver, rules)
	return NewMaintainer(db, registry, NewQueueFlagger())
}

func seedPatient(t *testing.T, db *gorm.DB, id string) patient.Patient {
	t.Helper()
	now := time.Now().UTC()
	row := patient.Patient{
		ID:               id,
		DisplayID:        "TW-" + id,
		VisibilityStatus: patient.VisibilityCurrent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to seed patient %s: %v", id, err)
	}
	return row
}

func strptr(s string) *string { return &s }

func newID() string { return uuid.New().String() }
