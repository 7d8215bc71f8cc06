package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository stores in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Notification{}).Where("recipient_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = false")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Where("recipient_id = ?", userID)
	if unreadOnly {
		fetch = fetch.Where("is_read = false")
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}
