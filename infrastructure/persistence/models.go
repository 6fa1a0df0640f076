package persistence

import "time"

// RecordModel represents a code-change record in the database.
type RecordModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	UserID       string    `gorm:"column:user_id;index;size:255;not null"`
	Environment  string    `gorm:"column:environment;index;size:16;not null"`
	Branch       string    `gorm:"column:branch;index;size:255;not null"`
	TaskID       string    `gorm:"column:task_id;size:255;not null"`
	Title        string    `gorm:"column:title;size:1024;not null"`
	Description  string    `gorm:"column:description;type:text"`
	Diff         string    `gorm:"column:diff;type:text;not null"`
	Summary      string    `gorm:"column:summary;type:text"`
	Tags         []string  `gorm:"column:tags;type:text;serializer:json"`
	Author       string    `gorm:"column:author;index;size:255"`
	LinesAdded   int       `gorm:"column:lines_added;default:0"`
	LinesRemoved int       `gorm:"column:lines_removed;default:0"`
	FilesChanged int       `gorm:"column:files_changed;default:0"`
	FileNames    []string  `gorm:"column:file_names;type:text;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at;index;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName returns the table name.
func (RecordModel) TableName() string {
	return "records"
}
