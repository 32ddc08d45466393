package domain

import (
	"time"

	"gorm.io/gorm"
)

// Role 闭合角色枚举，避免到处用字符串比较
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

func (r Role) IsAdmin() bool     { return r == RoleAdmin }
func (r Role) IsModerator() bool { return r == RoleModerator }
func (r Role) IsUser() bool      { return r == RoleUser }

// Privileged admin/moderator 可见受限字段
func (r Role) Privileged() bool { return r == RoleAdmin || r == RoleModerator }

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"size:255" json:"email"`
	PasswordHash string     `gorm:"size:191" json:"-"`
	Role         Role       `gorm:"size:16;not null;default:user" json:"role"`
	Age          *int       `json:"age,omitempty"`
	Bio          string     `gorm:"type:text" json:"bio,omitempty"`
	Avatar       string     `gorm:"size:255" json:"avatar,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
