package localdata

import "time"

// Entry is one key-value record. Values holding structured data are JSON
// encoded; a value that fails to decode is treated as absent by callers.
type Entry struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (Entry) TableName() string {
	return "local_values"
}

// Well-known keys. Watch-progress records live under KeyProgressPrefix
// followed by the session key.
const (
	KeyTheme          = "theme"
	KeyDeviceID       = "device:id"
	KeyProgressPrefix = "wp:"
)
