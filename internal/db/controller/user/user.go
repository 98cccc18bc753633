// Package user provides the credential store: CRUD operations on the local users table.
package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/db/models"
)

const (
	emailQueryPattern = "email = ?"

	recentWindow = 30 * 24 * time.Hour
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another record already uses the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrEmailEmpty is returned when attempting to create or look up a user with an empty email.
	ErrEmailEmpty = errors.New("user email cannot be empty")
	// ErrInvalidRole is returned for a role outside user, admin and superadmin.
	ErrInvalidRole = errors.New("invalid role")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store is the gorm backed credential store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store on db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Changes lists the fields Update may modify. Nil fields are left untouched.
type Changes struct {
	Name  *string
	Email *string
	Role  *models.Role
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Role == nil
}

// RoleCount is one row of the per role breakdown.
type RoleCount struct {
	Role  models.Role `json:"role"`
	Count int64       `json:"count"`
}

// Stats is the administrative overview of the users table.
type Stats struct {
	Total  int64       `json:"total"`
	Recent int64       `json:"recent"`
	ByRole []RoleCount `json:"byRole"`
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrDBNil
	}

	return s.db.WithContext(ctx), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}

	return err
}

// GetByEmail retrieves a user by exact email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}

	var u models.User
	if err = db.Where(emailQueryPattern, email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

// GetByID retrieves a user by its ID.
func (s *Store) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var u models.User
	if err = db.First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

// Create inserts a new user. passwordHash nil creates a directory managed account.
func (s *Store) Create(
	ctx context.Context, name, email string, passwordHash *string, role models.Role,
) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	// Check if the email is already registered
	if taken, err := s.emailTaken(db, email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	u := &models.User{
		Name:     name,
		Email:    email,
		Password: passwordHash,
		Role:     role,
	}

	if err = db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	return u, nil
}

// EnsureMirrored returns the record for email, creating a directory managed
// account with role user when none exists. created is true if a record was inserted.
func (s *Store) EnsureMirrored(ctx context.Context, email, displayName string) (*models.User, bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	if displayName == "" {
		displayName = email
	}

	u, err = s.Create(ctx, displayName, email, nil, models.RoleUser)
	if errors.Is(err, ErrEmailTaken) {
		// a concurrent login mirrored the same account
		u, err = s.GetByEmail(ctx, email)

		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}

	return u, true, nil
}

// Update applies changes to the user with id. An email owned by another record yields ErrEmailTaken.
func (s *Store) Update(ctx context.Context, id uint64, changes Changes) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Empty() {
		return u, nil
	}

	updates := map[string]any{"updated_at": s.now()}

	if changes.Name != nil {
		updates["name"] = *changes.Name
	}

	if changes.Email != nil && *changes.Email != u.Email {
		if *changes.Email == "" {
			return nil, ErrEmailEmpty
		}

		taken, err := s.emailTaken(db, *changes.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}

		updates["email"] = *changes.Email
	}

	if changes.Role != nil {
		if !changes.Role.Valid() {
			return nil, ErrInvalidRole
		}

		updates["role"] = *changes.Role
	}

	if err = db.Model(u).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	return s.GetByID(ctx, id)
}

// UpdateProfile changes name and email of the user with id.
func (s *Store) UpdateProfile(ctx context.Context, id uint64, name, email string) (*models.User, error) {
	return s.Update(ctx, id, Changes{Name: &name, Email: &email})
}

// UpdateRole sets the role of the user with id.
func (s *Store) UpdateRole(ctx context.Context, id uint64, role models.Role) (*models.User, error) {
	return s.Update(ctx, id, Changes{Role: &role})
}

// UpdatePassword stores a new password hash for the user with id.
func (s *Store) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": passwordHash, "updated_at": s.now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes the user with id. There is no soft delete.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// List returns all users, newest first.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err = db.Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err = db.Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, err
	}

	return n, nil
}

// Stats returns totals, registrations of the last 30 days and the per role breakdown.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	if err = db.Model(&models.User{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err = db.Model(&models.User{}).
		Where("created_at >= ?", s.now().Add(-recentWindow)).
		Count(&stats.Recent).Error; err != nil {
		return nil, err
	}

	if err = db.Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&stats.ByRole).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Store) emailTaken(db *gorm.DB, email string, exceptID uint64) (bool, error) {
	var n int64

	q := db.Model(&models.User{}).Where(emailQueryPattern, email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}
