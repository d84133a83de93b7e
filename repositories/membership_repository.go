package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

// MembershipRepository reads and writes the per-user recipe collections. The
// kind selects the backing table.
type MembershipRepository interface {
	Exists(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (bool, error)
	Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error
	Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (int64, error)
	// Members returns the subset of recipeIDs the user holds in kind.
	Members(ctx context.Context, kind models.MembershipKind, userID uint, recipeIDs []uint) (map[uint]bool, error)
	Count(ctx context.Context, kind models.MembershipKind, userID uint) (int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) table(ctx context.Context, kind models.MembershipKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *membershipRepository) Exists(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (bool, error) {
	var count int64
	err := r.table(ctx, kind).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func (r *membershipRepository) Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error {
	row := models.Membership{UserID: userID, RecipeID: recipeID}
	return r.table(ctx, kind).Create(&row).Error
}

func (r *membershipRepository) Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (int64, error) {
	res := r.table(ctx, kind).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Membership{})
	return res.RowsAffected, res.Error
}

func (r *membershipRepository) Members(ctx context.Context, kind models.MembershipKind, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	members := make(map[uint]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return members, nil
	}
	var ids []uint
	err := r.table(ctx, kind).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}

func (r *membershipRepository) Count(ctx context.Context, kind models.MembershipKind, userID uint) (int64, error) {
	var count int64
	err := r.table(ctx, kind).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
