package database

import (
	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Journal{},
		&domain.SharedDocument{},
		&domain.OTP{},
		&domain.ImpersonationLink{},
		&domain.ChatMessage{},
	)
}
