package models

import "time"

// Role of a user account
type Role string

const (
	RoleStandard Role = "standard"
	RoleLocked   Role = "locked"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleLocked, RoleAdmin:
		return true
	}
	return false
}

// User represents a user of the store.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email     *string   `json:"email,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // legacy or salted-hash credential
	Role      Role      `json:"userType" gorm:"type:varchar(20);not null;default:standard"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthSession records an issued rotation token so it can be revoked server-side.
// Only the hash of the token is stored.
type AuthSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"` // rotation token jti
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"type:varchar(64);not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
