package models

import "time"

// User is an imported account, unique by email.
type User struct {
	ID          uint      `gorm:"primaryKey"`
	Email       string    `gorm:"size:255;not null;uniqueIndex"`
	Username    string    `gorm:"size:120;not null"`
	DisplayName string    `gorm:"size:255"`
	Role        string    `gorm:"size:20;not null;default:user"`
	Bio         string    `gorm:"type:text"`
	AvatarPath  string    `gorm:"size:512"`
	JoinedAt    time.Time `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Series is a top-level work, unique by slug.
type Series struct {
	ID          uint      `gorm:"primaryKey"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex"`
	Title       string    `gorm:"size:512;not null"`
	AltTitles   []string  `gorm:"serializer:json;type:text"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"size:20;not null;default:unknown"`
	CategoryID  uint      `gorm:"index"`
	AuthorID    uint      `gorm:"index"`
	ArtistID    uint      `gorm:"index"`
	CoverPath   string    `gorm:"size:512"`
	BannerPath  string    `gorm:"size:512"`
	Rating      float64   `gorm:"not null;default:0"`
	Views       int64     `gorm:"not null;default:0"`
	ReleasedAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName keeps the plural form the CMS already uses.
func (Series) TableName() string { return "series" }

// SeriesTag links a series to a tag. Rows are replaced as a set.
type SeriesTag struct {
	SeriesID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint `gorm:"primaryKey;autoIncrement:false;index"`
	Position int  `gorm:"not null;default:0"`
}

// Chapter is a numbered part of a series, unique by (series_id, number).
type Chapter struct {
	ID            uint      `gorm:"primaryKey"`
	SeriesID      uint      `gorm:"not null;uniqueIndex:idx_chapters_series_number"`
	Number        float64   `gorm:"not null;uniqueIndex:idx_chapters_series_number"`
	Title         string    `gorm:"size:512"`
	ThumbnailPath string    `gorm:"size:512"`
	PageCount     int       `gorm:"not null;default:0"`
	Views         int64     `gorm:"not null;default:0"`
	ReleasedAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChapterPage is one image of a chapter. Rows are replaced as a set.
type ChapterPage struct {
	ID        uint   `gorm:"primaryKey"`
	ChapterID uint   `gorm:"not null;uniqueIndex:idx_chapter_pages_chapter_position"`
	Position  int    `gorm:"not null;uniqueIndex:idx_chapter_pages_chapter_position"`
	ImagePath string `gorm:"size:512;not null"`
}

// Lookup is the shape shared by every reference table.
type Lookup struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	NameKey   string `gorm:"size:255;not null;uniqueIndex"`
	Slug      string `gorm:"size:255;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Author struct{ Lookup }
type Artist struct{ Lookup }
type Category struct{ Lookup }
type Tag struct{ Lookup }

func (Category) TableName() string { return "categories" }

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Author{},
		&Artist{},
		&Category{},
		&Tag{},
		&Series{},
		&SeriesTag{},
		&Chapter{},
		&ChapterPage{},
	}
}
