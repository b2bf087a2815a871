package schema

import (
	"strings"

	"content-importer/core/utils"
)

// Candidate keys per logical attribute, in precedence order.
// Dotted keys reach into nested objects.
var (
	titleKeys       = []string{"title", "name", "series_title", "manga_title", "metadata.title"}
	slugKeys        = []string{"slug", "id_slug", "permalink"}
	altTitleKeys    = []string{"alt_titles", "alternative_titles", "alternatives", "aliases", "metadata.alt_titles"}
	descriptionKeys = []string{"description", "summary", "synopsis", "metadata.description"}
	statusKeys      = []string{"status", "state", "metadata.status"}
	authorKeys      = []string{"author", "authors", "writer", "metadata.author"}
	artistKeys      = []string{"artist", "artists", "illustrator", "metadata.artist"}
	categoryKeys    = []string{"type", "category", "format", "metadata.type"}
	tagKeys         = []string{"tags", "genres", "genre", "metadata.genres"}
	coverKeys       = []string{"cover", "cover_url", "thumbnail", "image", "poster"}
	bannerKeys      = []string{"banner", "banner_url"}
	ratingKeys      = []string{"rating", "score", "metadata.rating"}
	viewKeys        = []string{"views", "view_count", "views_count"}
	releasedKeys    = []string{"released", "release_date", "published_at", "date", "created_at", "updated_at"}

	parentKeys        = []string{"series_slug", "manga_slug", "series", "manga", "parent"}
	numberKeys        = []string{"number", "chapter_number", "chapter", "chapter_no", "ch"}
	chapterTitleKeys  = []string{"title", "name", "chapter_title"}
	pageKeys          = []string{"images", "pages", "image_urls", "page_urls"}
	chapterThumbKeys  = []string{"thumbnail", "thumbnail_url", "cover", "image"}
	chapterDateKeys   = []string{"released", "release_date", "published_at", "date", "uploaded_at", "created_at"}
	nestedChapterKeys = []string{"chapters", "episodes"}

	emailKeys       = []string{"email", "mail", "user_email"}
	usernameKeys    = []string{"username", "user_name", "login", "name"}
	displayNameKeys = []string{"display_name", "full_name", "nickname"}
	roleKeys        = []string{"role", "user_role", "group"}
	bioKeys         = []string{"bio", "about", "description"}
	avatarKeys      = []string{"avatar", "avatar_url", "profile_image", "image"}
	joinedKeys      = []string{"joined_at", "registered_at", "created_at", "date"}
)

// lookup resolves a dotted path inside raw.
func lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// first returns the first non-empty value among keys and the key it came from.
func first(raw map[string]any, keys []string) (any, string) {
	for _, k := range keys {
		if v, ok := lookup(raw, k); ok && !isEmpty(v) {
			return v, k
		}
	}
	return nil, ""
}

// firstString returns the first non-empty value rendered as trimmed text.
// Lists are joined with ", " so that "authors": ["A", "B"] still yields a name.
func firstString(raw map[string]any, keys []string) string {
	v, _ := first(raw, keys)
	return asText(v)
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		return strings.Join(stringList(t), ", ")
	case map[string]any:
		for _, k := range []string{"name", "title", "slug", "url", "src"} {
			if s := asText(t[k]); s != "" {
				return s
			}
		}
		return ""
	}
	return utils.CollapseSpace(utils.ToString(v))
}

// firstName returns a single reference name. When a list is given only the
// first entry is used.
func firstName(raw map[string]any, keys []string) string {
	v, _ := first(raw, keys)
	if list, ok := v.([]any); ok {
		names := stringList(list)
		if len(names) == 0 {
			return ""
		}
		return names[0]
	}
	return asText(v)
}

// stringList flattens strings and {name|title|url|src} objects, dropping blanks.
func stringList(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if _, nested := item.([]any); nested {
			continue
		}
		if s := asText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitList accepts an array or a separated string and returns unique,
// non-empty entries in input order. Comparison is case-insensitive.
func splitList(v any, seps string) []string {
	var items []string
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		items = stringList(t)
	default:
		items = strings.FieldsFunc(asText(t), func(r rune) bool {
			return strings.ContainsRune(seps, r)
		})
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = utils.CollapseSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// urlList extracts asset URLs from strings or {url|src|image} objects.
func urlList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if s := asText(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		var s string
		if m, ok := item.(map[string]any); ok {
			v, _ := first(m, []string{"url", "src", "image", "link"})
			s = asText(v)
		} else {
			s = asText(item)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeStatus(s string) string {
	switch strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "-", " "))), " ") {
	case "ongoing", "on going", "publishing", "releasing", "serializing", "active":
		return StatusOngoing
	case "completed", "complete", "finished", "ended", "done":
		return StatusCompleted
	case "hiatus", "on hiatus", "paused", "on hold":
		return StatusHiatus
	case "cancelled", "canceled", "dropped", "discontinued":
		return StatusCancelled
	}
	return StatusUnknown
}

func normalizeRole(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator", "owner", "superuser":
		return RoleAdmin
	case "mod", "moderator", "editor":
		return RoleModerator
	}
	return RoleUser
}
