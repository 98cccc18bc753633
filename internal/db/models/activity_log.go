package models

import "time"

// ActivityType classifies an audit entry.
type ActivityType string

// Activity types written by the service.
const (
	ActivityLogin                ActivityType = "LOGIN"
	ActivityLoginFailed          ActivityType = "LOGIN_FAILED"
	ActivityRegister             ActivityType = "REGISTER"
	ActivityProfileUpdated       ActivityType = "PROFILE_UPDATED"
	ActivityPasswordChanged      ActivityType = "PASSWORD_CHANGED"
	ActivityPasswordChangeFailed ActivityType = "PASSWORD_CHANGE_FAILED"
	ActivityPasswordReset        ActivityType = "PASSWORD_RESET"
	ActivityUserCreated          ActivityType = "USER_CREATED"
	ActivityUserUpdated          ActivityType = "USER_UPDATED"
	ActivityUserDeleted          ActivityType = "USER_DELETED"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID           uint64       `gorm:"primaryKey"                      json:"id"`
	UserID       uint64       `gorm:"index;not null"                  json:"user_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;index" json:"activity_type"`
	Description  string       `gorm:"size:500"                        json:"description"`
	IPAddress    string       `gorm:"size:45"                         json:"ip_address"`
	UserAgent    string       `gorm:"size:500"                        json:"user_agent"`
	Timestamp    time.Time    `gorm:"index;not null"                  json:"timestamp"`
}

// TableName specifies the database table name for the ActivityLog model.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
