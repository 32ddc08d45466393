package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pawhub/internal/domain"
)

type BreedRepo struct{ db *gorm.DB }

func NewBreedRepo(db *gorm.DB) *BreedRepo { return &BreedRepo{db: db} }

func (r *BreedRepo) Create(ctx context.Context, b *domain.Breed) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BreedRepo) FindByID(ctx context.Context, id string) (*domain.Breed, error) {
	var b domain.Breed
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &b, err
}

func (r *BreedRepo) Update(ctx context.Context, b *domain.Breed) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BreedRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Breed{})
	return res.RowsAffected, res.Error
}

// Search 大小写不敏感子串匹配，空串返回全部
func (r *BreedRepo) Search(ctx context.Context, q string) ([]domain.Breed, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Breed{}).Order("name")
	if s := strings.TrimSpace(q); s != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var breeds []domain.Breed
	err := tx.Find(&breeds).Error
	return breeds, err
}
