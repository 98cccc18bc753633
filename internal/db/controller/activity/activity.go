// Package activity provides the append-only audit log of user activity.
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/db/models"
)

const (
	// DefaultPageSize is used when List is called with a non positive limit.
	DefaultPageSize = 20
	// DefaultRetentionDays is used when Cleanup is called with a non positive days value.
	DefaultRetentionDays = 90

	summaryRecent = 5
	summaryWindow = 30 * 24 * time.Hour

	userQueryPattern = "user_id = ?"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Entry is the data of a new audit record.
type Entry struct {
	UserID      uint64
	Type        models.ActivityType
	Description string
	IPAddress   string
	UserAgent   string
}

// Pagination describes the position of a Page.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalActivities int64 `json:"totalActivities"`
	HasNext         bool  `json:"hasNext"`
	HasPrev         bool  `json:"hasPrev"`
}

// Page is one page of a user's activity, newest first.
type Page struct {
	Activities []models.ActivityLog `json:"activities"`
	Pagination Pagination           `json:"pagination"`
}

// TypeCount is the number of entries of one type.
type TypeCount struct {
	ActivityType models.ActivityType `json:"activity_type"`
	Count        int64               `json:"count"`
}

// Summary is the dashboard view of a user's activity.
type Summary struct {
	RecentActivities []models.ActivityLog `json:"recentActivities"`
	Stats            []TypeCount          `json:"stats"`
	LastLogin        *time.Time           `json:"lastLogin"`
}

// Store persists activity entries.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store on db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrDBNil
	}

	return s.db.WithContext(ctx), nil
}

// Record writes an entry and returns the storage error, if any.
func (s *Store) Record(ctx context.Context, e Entry) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	return db.Create(&models.ActivityLog{
		UserID:       e.UserID,
		ActivityType: e.Type,
		Description:  e.Description,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Timestamp:    s.now(),
	}).Error
}

// Log writes an entry on a best effort basis. Failures are logged, never returned.
func (s *Store) Log(ctx context.Context, e Entry) {
	if err := s.Record(ctx, e); err != nil {
		log.Warn().
			Err(err).
			Uint64("user_id", e.UserID).
			Str("activity_type", string(e.Type)).
			Msg("can't write activity log")
	}
}

// List returns page of the user's entries, newest first. page starts at 1.
func (s *Store) List(ctx context.Context, userID uint64, page, limit int) (*Page, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	var total int64
	if err = db.Model(&models.ActivityLog{}).Where(userQueryPattern, userID).Count(&total).Error; err != nil {
		return nil, err
	}

	activities := make([]models.ActivityLog, 0, limit)
	if err = db.Where(userQueryPattern, userID).
		Order("timestamp DESC").Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &Page{
		Activities: activities,
		Pagination: Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			TotalActivities: total,
			HasNext:         page < totalPages,
			HasPrev:         page > 1,
		},
	}, nil
}

// Summary returns the last five entries, the per type counts of the last
// 30 days and the time of the last successful login.
func (s *Store) Summary(ctx context.Context, userID uint64) (*Summary, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RecentActivities: []models.ActivityLog{},
		Stats:            []TypeCount{},
	}

	if err = db.Where(userQueryPattern, userID).
		Order("timestamp DESC").Order("id DESC").
		Limit(summaryRecent).
		Find(&sum.RecentActivities).Error; err != nil {
		return nil, err
	}

	if err = db.Model(&models.ActivityLog{}).
		Select("activity_type, COUNT(*) AS count").
		Where(userQueryPattern, userID).
		Where("timestamp >= ?", s.now().Add(-summaryWindow)).
		Group("activity_type").
		Order("count DESC").
		Scan(&sum.Stats).Error; err != nil {
		return nil, err
	}

	var last models.ActivityLog

	err = db.Where(userQueryPattern, userID).
		Where("activity_type = ?", models.ActivityLogin).
		Order("timestamp DESC").
		First(&last).Error

	switch {
	case err == nil:
		sum.LastLogin = &last.Timestamp
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return sum, nil
}

// Cleanup deletes the user's entries older than days and returns how many were removed.
func (s *Store) Cleanup(ctx context.Context, userID uint64, days int) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	if days < 1 {
		days = DefaultRetentionDays
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	result := db.Where(userQueryPattern, userID).
		Where("timestamp < ?", cutoff).
		Delete(&models.ActivityLog{})

	return result.RowsAffected, result.Error
}
