package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Exists(ctx context.Context, followerID, authorID uint) (bool, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, followerID, authorID uint) (int64, error)
	ListByFollower(ctx context.Context, followerID uint, offset, limit int) ([]models.Subscription, int64, error)
	// FollowedAmong returns the subset of authorIDs the follower subscribes to.
	FollowedAmong(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Exists(ctx context.Context, followerID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Omit("Author").Create(sub).Error
}

func (r *subscriptionRepository) Delete(ctx context.Context, followerID, authorID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Subscription{})
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepository) ListByFollower(ctx context.Context, followerID uint, offset, limit int) ([]models.Subscription, int64, error) {
	var subs []models.Subscription
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("follower_id = ?", followerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Author").
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error
	return subs, total, err
}

func (r *subscriptionRepository) FollowedAmong(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool, len(authorIDs))
	if followerID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ? AND author_id IN ?", followerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}
