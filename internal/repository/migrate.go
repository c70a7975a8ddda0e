package repository

import (
	"fmt"

	"github.com/tkubota31/express-messagely/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the users and messages tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
