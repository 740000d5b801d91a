package repository

import (
	"context"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return GetDB(ctx, r.db).Create(notification).Error
}

// ListForUser returns the user's own notifications plus broadcasts (nil user_id)
func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	query := GetDB(ctx, r.db).Where("user_id = ? OR user_id IS NULL", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if err := query.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", id, userID).
		Update("read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("(user_id = ? OR user_id IS NULL) AND read = ?", userID, false).
		Update("read", true).Error
}
