package domain

import "time"

// Review 创建后不可修改
type Review struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	UserID   string `gorm:"size:36;not null;index" json:"userId"`
	User     *User  `gorm:"foreignKey:UserID" json:"-"`
	AuthorID string `gorm:"size:36;not null;index" json:"authorId"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text     string `gorm:"type:text;not null" json:"text"`
	Rating   int    `gorm:"not null;default:5" json:"rating"`
	Slug     string `gorm:"uniqueIndex;size:191;not null" json:"slug"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

// All 需要 AutoMigrate 的全部模型
func All() []any {
	return []any{&User{}, &Breed{}, &Dog{}, &Pedigree{}, &Review{}}
}
