package domain

import "time"

type Breed struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Breed) TableName() string { return "breeds" }

type Dog struct {
	ID      string  `gorm:"primaryKey;size:36" json:"id"`
	Name    string  `gorm:"size:255;not null" json:"name"`
	Age     int     `gorm:"not null" json:"age"`
	BreedID string  `gorm:"size:36;not null;index" json:"breedId"`
	Breed   *Breed  `gorm:"foreignKey:BreedID" json:"breed,omitempty"`
	Image   string  `gorm:"size:255" json:"image,omitempty"`
	OwnerID *string `gorm:"size:36;index" json:"ownerId,omitempty"`
	Owner   *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	// Views 只通过存储层的原子自增变化，管理端除外
	Views    int64 `gorm:"not null;default:0" json:"views"`
	IsActive bool  `gorm:"not null;default:true" json:"isActive"`

	Pedigree []Pedigree `gorm:"foreignKey:DogID;constraint:OnDelete:CASCADE" json:"pedigree,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Dog) TableName() string { return "dogs" }

// Pedigree 单条祖先记录，随 Dog 级联删除
type Pedigree struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	DogID        string `gorm:"size:36;not null;index" json:"dogId"`
	AncestorName string `gorm:"size:255;not null" json:"ancestorName"`
	Relationship string `gorm:"size:100" json:"relationship,omitempty"`
	BirthYear    *int   `json:"birthYear,omitempty"`
}

func (Pedigree) TableName() string { return "pedigrees" }
