package gormstore

import "time"

// Post is the minimal shape of the application's posts table, used when
// auto_migrate is enabled and for seeding tests.
type Post struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Title     string  `gorm:"size:255"`
	Image     *string `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
