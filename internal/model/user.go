package model

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	BaseModel
	Email        string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	Name         string  `gorm:"size:128" json:"name,omitempty"`
	Role         string  `gorm:"size:20;not null;default:user" json:"role"`
	APIKey       *string `gorm:"size:64;uniqueIndex" json:"-"`
}
