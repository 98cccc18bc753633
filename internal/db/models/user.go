package models

import (
	"time"
)

// User is a local account record. Email is the join key with the directory.
type User struct {
	// ID is assigned on creation and never changes.
	ID uint64 `gorm:"primaryKey"                                json:"id"`
	// Name is the display name.
	Name string `gorm:"size:100;not null"                       json:"name"`
	// Email is unique and compared exactly as stored.
	Email string `gorm:"size:255;not null;uniqueIndex"           json:"email"`
	// Password is the one-way hash. Nil for accounts whose credential authority is the directory.
	Password *string `gorm:"size:255"                            json:"-"`
	// Role defaults to user.
	Role Role `gorm:"type:varchar(20);not null;default:'user'"    json:"role"`
	// CreatedAt is set once by gorm.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt changes on every profile, role or password mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can be verified against the local store.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// DirectoryManaged reports whether the directory is the only credential authority.
func (u *User) DirectoryManaged() bool {
	return !u.HasPassword()
}

// Identity returns the public part of the record.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Identity is the caller-facing view of a user.
type Identity struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
