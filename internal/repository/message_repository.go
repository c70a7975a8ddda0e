package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// MarkReadIfUnread sets read_at only when it is still NULL and reports
	// whether this call performed the transition.
	MarkReadIfUnread(ctx context.Context, id uint, readAt time.Time) (bool, error)
	ListByRecipient(ctx context.Context, username string) ([]models.Message, error)
	ListBySender(ctx context.Context, username string) ([]models.Message, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Omit("FromUser", "ToUser").Create(message).Error
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) MarkReadIfUnread(ctx context.Context, id uint, readAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", readAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormMessageRepository) ListByRecipient(ctx context.Context, username string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("to_username = ?", username).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) ListBySender(ctx context.Context, username string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("from_username = ?", username).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
