package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the shape of an input record.
type Kind string

const (
	KindUser    Kind = "user"
	KindSeries  Kind = "series"
	KindChapter Kind = "chapter"
)

// Kinds lists every kind in dependency order. Chapters need their series,
// series may reference users only indirectly, so users go first.
var Kinds = []Kind{KindUser, KindSeries, KindChapter}

// ParseKind converts a string such as "series" or "chapters" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "user":
		return KindUser, nil
	case "serie", "manga", "work":
		return KindSeries, nil
	case "chapter":
		return KindChapter, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// RawRecord is one JSON object as decoded from a source file.
type RawRecord map[string]any

// Envelope carries a raw record together with where it came from.
type Envelope struct {
	Raw   RawRecord
	File  string
	Index int
	// Path locates records nested inside another record, e.g. "chapters[2]".
	Path string
}

// Origin formats the envelope location for logs and error summaries.
func (e Envelope) Origin() string {
	origin := fmt.Sprintf("%s#%d", e.File, e.Index)
	if e.File == "" {
		origin = fmt.Sprintf("#%d", e.Index)
	}
	if e.Path != "" {
		origin += "." + e.Path
	}
	return origin
}

// Record is a validated record. Exactly one of User, Series or Chapter is set,
// matching Kind.
type Record struct {
	Kind   Kind
	Key    string
	Origin string

	User    *User
	Series  *Series
	Chapter *Chapter
}

// User is a validated account record keyed by email.
type User struct {
	Email       string
	Username    string
	DisplayName string
	Role        string
	Bio         string
	AvatarURL   string
	JoinedAt    time.Time
}

// Series is a validated top-level work keyed by slug.
type Series struct {
	Slug        string
	Title       string
	AltTitles   []string
	Description string
	Status      string
	Category    string
	Author      string
	Artist      string
	Tags        []string
	CoverURL    string
	BannerURL   string
	Rating      float64
	Views       int64
	ReleasedAt  time.Time
}

// Chapter is a validated numbered chapter keyed by its series slug and number.
type Chapter struct {
	SeriesSlug   string
	Number       float64
	Title        string
	Pages        []string
	ThumbnailURL string
	Views        int64
	ReleasedAt   time.Time
}

// ChapterKey builds the composite natural key of a chapter.
func ChapterKey(seriesSlug string, number float64) string {
	return seriesSlug + "#" + strconv.FormatFloat(number, 'f', -1, 64)
}

// Series statuses after normalization.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
	StatusCancelled = "cancelled"
	StatusUnknown   = "unknown"
)

// User roles after normalization.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)
