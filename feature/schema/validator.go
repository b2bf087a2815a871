package schema

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"content-importer/core/utils"
)

var titleNumber = regexp.MustCompile(`(?i)(?:chapter|chap\.?|ch\.?|episode|ep\.?|#)\s*(\d+(?:\.\d+)?)`)

// Validator turns raw records into typed records. It holds no mutable state;
// the clock is fixed at construction so that every record of a run falls back
// to the same "now".
type Validator struct {
	now time.Time
}

// NewValidator creates a validator. A zero now uses the current time.
func NewValidator(now time.Time) *Validator {
	if now.IsZero() {
		now = time.Now()
	}
	return &Validator{now: now.UTC().Truncate(time.Second)}
}

// Now returns the fallback timestamp used for missing dates.
func (v *Validator) Now() time.Time {
	return v.now
}

// Validate normalizes env into a Record of the given kind or returns a
// *ValidationError.
func (v *Validator) Validate(env Envelope, kind Kind) (*Record, error) {
	if env.Raw == nil {
		return nil, invalid(kind, env, "$", "record is not a JSON object")
	}

	rec := &Record{Kind: kind, Origin: env.Origin()}
	switch kind {
	case KindUser:
		u, err := v.user(env)
		if err != nil {
			return nil, err
		}
		rec.User, rec.Key = u, u.Email
	case KindSeries:
		s, err := v.series(env)
		if err != nil {
			return nil, err
		}
		rec.Series, rec.Key = s, s.Slug
	case KindChapter:
		c, err := v.chapter(env)
		if err != nil {
			return nil, err
		}
		rec.Chapter, rec.Key = c, ChapterKey(c.SeriesSlug, c.Number)
	default:
		return nil, invalid(kind, env, "$", "unsupported kind")
	}
	return rec, nil
}

func (v *Validator) user(env Envelope) (*User, error) {
	raw := env.Raw

	email := firstString(raw, emailKeys)
	if email == "" {
		return nil, invalid(KindUser, env, "email", "missing")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, invalid(KindUser, env, "email", "%q is not a valid address", email)
	}
	email = strings.ToLower(addr.Address)

	username := firstString(raw, usernameKeys)
	if username == "" {
		username = email[:strings.IndexByte(email, '@')]
	}
	display := firstString(raw, displayNameKeys)
	if display == "" {
		display = username
	}

	joined, _ := first(raw, joinedKeys)
	return &User{
		Email:       email,
		Username:    username,
		DisplayName: display,
		Role:        normalizeRole(firstString(raw, roleKeys)),
		Bio:         firstString(raw, bioKeys),
		AvatarURL:   firstString(raw, avatarKeys),
		JoinedAt:    parseDate(joined, v.now),
	}, nil
}

func (v *Validator) series(env Envelope) (*Series, error) {
	raw := env.Raw

	title := firstString(raw, titleKeys)
	if title == "" {
		return nil, invalid(KindSeries, env, "title", "missing")
	}
	slug := seriesSlug(raw)
	if slug == "" {
		return nil, invalid(KindSeries, env, "slug", "cannot derive a slug from %q", title)
	}

	rating := 0.0
	if r, _ := first(raw, ratingKeys); r != nil {
		f, ok := utils.ToFloat(r)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, invalid(KindSeries, env, "rating", "%q is not a non-negative number", utils.ToString(r))
		}
		rating = f
	}

	views, err := count(raw, viewKeys)
	if err != nil {
		return nil, invalid(KindSeries, env, "views", "%v", err)
	}

	alt, _ := first(raw, altTitleKeys)
	tags, _ := first(raw, tagKeys)
	released, _ := first(raw, releasedKeys)

	return &Series{
		Slug:        slug,
		Title:       title,
		AltTitles:   splitList(alt, ";|"),
		Description: firstString(raw, descriptionKeys),
		Status:      normalizeStatus(firstString(raw, statusKeys)),
		Category:    firstName(raw, categoryKeys),
		Author:      firstName(raw, authorKeys),
		Artist:      firstName(raw, artistKeys),
		Tags:        splitList(tags, ","),
		CoverURL:    firstString(raw, coverKeys),
		BannerURL:   firstString(raw, bannerKeys),
		Rating:      rating,
		Views:       views,
		ReleasedAt:  parseDate(released, v.now),
	}, nil
}

func (v *Validator) chapter(env Envelope) (*Chapter, error) {
	raw := env.Raw

	parent := parentSlug(raw)
	if parent == "" {
		return nil, invalid(KindChapter, env, "series_slug", "missing parent series")
	}

	title := firstString(raw, chapterTitleKeys)
	number, ok := chapterNumber(raw, title)
	if !ok {
		return nil, invalid(KindChapter, env, "number", "missing or not a number and none found in title %q", title)
	}
	if title == "" {
		title = "Chapter " + strconv.FormatFloat(number, 'f', -1, 64)
	}

	views, err := count(raw, viewKeys)
	if err != nil {
		return nil, invalid(KindChapter, env, "views", "%v", err)
	}

	pages, _ := first(raw, pageKeys)
	released, _ := first(raw, chapterDateKeys)

	return &Chapter{
		SeriesSlug:   parent,
		Number:       number,
		Title:        title,
		Pages:        urlList(pages),
		ThumbnailURL: firstString(raw, chapterThumbKeys),
		Views:        views,
		ReleasedAt:   parseDate(released, v.now),
	}, nil
}

// seriesSlug prefers an explicit slug and falls back to the slugified title.
func seriesSlug(raw map[string]any) string {
	if s := utils.Slugify(firstString(raw, slugKeys)); s != "" {
		return s
	}
	return utils.Slugify(firstString(raw, titleKeys))
}

// parentSlug accepts a slug string, a title string, or an object with
// slug/title.
func parentSlug(raw map[string]any) string {
	v, _ := first(raw, parentKeys)
	if m, ok := v.(map[string]any); ok {
		return seriesSlug(m)
	}
	return utils.Slugify(asText(v))
}

// chapterNumber takes the explicit numeric field first, then a number found
// in the field text or the title.
func chapterNumber(raw map[string]any, title string) (float64, bool) {
	if v, _ := first(raw, numberKeys); v != nil {
		if f, ok := utils.ToFloat(v); ok && f >= 0 && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
		if f, ok := numberInText(asText(v)); ok {
			return f, true
		}
	}
	return numberInText(title)
}

func numberInText(s string) (float64, bool) {
	m := titleNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	return f, err == nil
}

func count(raw map[string]any, keys []string) (int64, error) {
	v, _ := first(raw, keys)
	if v == nil {
		return 0, nil
	}
	f, ok := utils.ToFloat(v)
	if !ok || f < 0 || !utils.FitsInt64(f) {
		return 0, fmt.Errorf("%q is not a non-negative number", utils.ToString(v))
	}
	return int64(f), nil
}
