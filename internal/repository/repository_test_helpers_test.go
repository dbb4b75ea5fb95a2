package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Journal{},
		&domain.SharedDocument{},
		&domain.OTP{},
		&domain.ImpersonationLink{},
		&domain.ChatMessage{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func seedJournalForTest(t *testing.T, db *gorm.DB, journal *domain.Journal) *domain.Journal {
	t.Helper()
	if journal.ID == "" {
		journal.ID = newID()
	}
	if journal.ExternalID == "" {
		journal.ExternalID = "J-" + journal.ID[:8]
	}
	if journal.Name == "" {
		journal.Name = "Estate of Testersen"
	}
	if err := db.Create(journal).Error; err != nil {
		t.Fatalf("seed journal: %v", err)
	}
	return journal
}
