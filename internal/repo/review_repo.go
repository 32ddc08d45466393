package repo

import (
	"context"

	"gorm.io/gorm"

	"pawhub/internal/domain"
)

// ReviewPageSize 每页 5 条
const ReviewPageSize = 5

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("slug = ?", slug).
		Count(&n).Error
	return n > 0, err
}

// ListBySubject 某用户收到的评价，按时间倒序分页
func (r *ReviewRepo) ListBySubject(ctx context.Context, userID string, page int) ([]domain.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	q := r.db.WithContext(ctx).Model(&domain.Review{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []domain.Review
	err := q.Preload("Author").
		Order("created_at DESC").
		Limit(ReviewPageSize).
		Offset((page - 1) * ReviewPageSize).
		Find(&reviews).Error
	return reviews, total, err
}
