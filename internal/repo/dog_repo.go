package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pawhub/internal/domain"
)

type DogRepo struct{ db *gorm.DB }

func NewDogRepo(db *gorm.DB) *DogRepo { return &DogRepo{db: db} }

func (r *DogRepo) List(ctx context.Context) ([]domain.Dog, error) {
	var dogs []domain.Dog
	err := r.db.WithContext(ctx).Preload("Breed").Order("name").Find(&dogs).Error
	return dogs, err
}

func (r *DogRepo) FindByID(ctx context.Context, id string) (*domain.Dog, error) {
	var d domain.Dog
	err := r.db.WithContext(ctx).
		Preload("Breed").
		Preload("Owner").
		Preload("Pedigree").
		First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &d, err
}

// CreateWithPedigree 狗和血统记录一并落库，同一事务，全有或全无
func (r *DogRepo) CreateWithPedigree(ctx context.Context, d *domain.Dog, rows []domain.Pedigree) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].DogID = d.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		d.Pedigree = rows
		return nil
	})
}

// UpdateWithPedigree 只写白名单列，血统记录整体替换
func (r *DogRepo) UpdateWithPedigree(ctx context.Context, d *domain.Dog, rows []domain.Pedigree) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":     d.Name,
			"age":      d.Age,
			"breed_id": d.BreedID,
			"image":    d.Image,
		}
		if err := tx.Model(&domain.Dog{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("dog_id = ?", d.ID).Delete(&domain.Pedigree{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].DogID = d.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		d.Pedigree = rows
		return nil
	})
}

// AdminUpdate 管理端允许改 owner/views/is_active
func (r *DogRepo) AdminUpdate(ctx context.Context, id string, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Dog{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// Delete 级联删血统记录
func (r *DogRepo) Delete(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dog_id = ?", id).Delete(&domain.Pedigree{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Dog{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// IncrementViews 存储层原子自增，再回读权威计数（避免并发丢更新）
func (r *DogRepo) IncrementViews(ctx context.Context, id string) (int64, error) {
	if err := r.db.WithContext(ctx).Model(&domain.Dog{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return 0, err
	}
	var views int64
	err := r.db.WithContext(ctx).Model(&domain.Dog{}).
		Where("id = ?", id).
		Select("views").
		Scan(&views).Error
	return views, err
}

// Search 按狗名或品种名，大小写不敏感子串；空串返回全部
func (r *DogRepo) Search(ctx context.Context, q string) ([]domain.Dog, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Dog{}).Preload("Breed").Order("dogs.name")
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Joins("JOIN breeds ON breeds.id = dogs.breed_id").
			Where("LOWER(dogs.name) LIKE ? OR LOWER(breeds.name) LIKE ?", like, like)
	}
	var dogs []domain.Dog
	err := tx.Find(&dogs).Error
	return dogs, err
}

type DogFilter struct {
	Q       string
	BreedID string
	Age     *int
	Offset  int
	Limit   int
}

// AdminList 管理端列表：搜索 + 过滤 + 分页
func (r *DogRepo) AdminList(ctx context.Context, f DogFilter) ([]domain.Dog, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Dog{}).Preload("Breed")
	if s := strings.TrimSpace(f.Q); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.BreedID != "" {
		q = q.Where("breed_id = ?", f.BreedID)
	}
	if f.Age != nil {
		q = q.Where("age = ?", *f.Age)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var dogs []domain.Dog
	if err := q.Order("name").Limit(f.Limit).Offset(f.Offset).Find(&dogs).Error; err != nil {
		return nil, 0, err
	}
	return dogs, total, nil
}
