package importer

import (
	"context"
	"fmt"
	"time"

	"content-importer/feature/assets"
	"content-importer/feature/importer/models"
	"content-importer/feature/reference"
	"content-importer/feature/schema"

	"go.uber.org/zap"
)

// Deps are the collaborators shared by the built-in adapters.
type Deps struct {
	Persister Persister
	Resolver  *reference.Resolver
	Assets    *assets.Deduplicator
	Folders   assets.Config
	Logger    *zap.Logger
	// Now stamps created_at/updated_at; defaults to time.Now.
	Now func() time.Time
}

// DefaultAdapters returns the user, series and chapter adapters.
func DefaultAdapters(deps Deps) []Adapter {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return []Adapter{
		&UserAdapter{deps: deps},
		&SeriesAdapter{deps: deps},
		&ChapterAdapter{deps: deps},
	}
}

// UserAdapter imports users keyed by email.
type UserAdapter struct {
	deps Deps
}

func (a *UserAdapter) Kind() schema.Kind { return schema.KindUser }

func (a *UserAdapter) Prepare(ctx context.Context, rec *schema.Record) (Mutation, error) {
	u := rec.User
	if u == nil {
		return nil, fmt.Errorf("record %s has no user payload", rec.Origin)
	}
	avatar := a.deps.Assets.Materialize(ctx, u.AvatarURL, a.deps.Folders.AvatarFolder, a.deps.Folders.AvatarFallback)

	now := a.deps.Now()
	return &upsert{
		row: &models.User{
			Email:       u.Email,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Bio:         u.Bio,
			AvatarPath:  avatar,
			JoinedAt:    u.JoinedAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		probe:    func() any { return &models.User{} },
		key:      map[string]any{"email": u.Email},
		conflict: []string{"email"},
		update:   []string{"username", "display_name", "role", "bio", "avatar_path", "joined_at", "updated_at"},
	}, nil
}

// SeriesAdapter imports series keyed by slug, with their tag links.
type SeriesAdapter struct {
	deps Deps
}

func (a *SeriesAdapter) Kind() schema.Kind { return schema.KindSeries }

func (a *SeriesAdapter) Prepare(ctx context.Context, rec *schema.Record) (Mutation, error) {
	s := rec.Series
	if s == nil {
		return nil, fmt.Errorf("record %s has no series payload", rec.Origin)
	}

	r := a.deps.Resolver
	authorID, err := r.Resolve(ctx, reference.KindAuthor, s.Author)
	if err != nil {
		return nil, err
	}
	artistID, err := r.Resolve(ctx, reference.KindArtist, s.Artist)
	if err != nil {
		return nil, err
	}
	categoryID, err := r.Resolve(ctx, reference.KindCategory, s.Category)
	if err != nil {
		return nil, err
	}
	tagIDs, err := r.ResolveAll(ctx, reference.KindTag, s.Tags)
	if err != nil {
		return nil, err
	}

	f := a.deps.Folders
	cover := a.deps.Assets.Materialize(ctx, s.CoverURL, f.CoverFolder, f.CoverFallback)
	banner := a.deps.Assets.Materialize(ctx, s.BannerURL, f.BannerFolder, f.BannerFallback)

	now := a.deps.Now()
	u := &upsert{
		row: &models.Series{
			Slug:        s.Slug,
			Title:       s.Title,
			AltTitles:   s.AltTitles,
			Description: s.Description,
			Status:      s.Status,
			CategoryID:  categoryID,
			AuthorID:    authorID,
			ArtistID:    artistID,
			CoverPath:   cover,
			BannerPath:  banner,
			Rating:      s.Rating,
			Views:       s.Views,
			ReleasedAt:  s.ReleasedAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		probe:    func() any { return &models.Series{} },
		key:      map[string]any{"slug": s.Slug},
		conflict: []string{"slug"},
		update: []string{"title", "alt_titles", "description", "status", "category_id", "author_id",
			"artist_id", "cover_path", "banner_path", "rating", "views", "released_at", "updated_at"},
	}
	u.children = func(id uint) (any, string, any) {
		links := make([]models.SeriesTag, len(tagIDs))
		for i, tagID := range tagIDs {
			links[i] = models.SeriesTag{SeriesID: id, TagID: tagID, Position: i}
		}
		return &models.SeriesTag{}, "series_id", links
	}
	return u, nil
}

// ChapterAdapter imports chapters keyed by (series, number), with their pages.
type ChapterAdapter struct {
	deps Deps
}

func (a *ChapterAdapter) Kind() schema.Kind { return schema.KindChapter }

func (a *ChapterAdapter) Prepare(ctx context.Context, rec *schema.Record) (Mutation, error) {
	c := rec.Chapter
	if c == nil {
		return nil, fmt.Errorf("record %s has no chapter payload", rec.Origin)
	}

	var parent models.Series
	found, err := a.deps.Persister.FindByUniqueKey(ctx, &parent, map[string]any{"slug": c.SeriesSlug})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("series %q: %w", c.SeriesSlug, ErrParentNotFound)
	}

	f := a.deps.Folders
	thumb := a.deps.Assets.Materialize(ctx, c.ThumbnailURL, f.ThumbFolder, f.ThumbFallback)
	pages := a.deps.Assets.MaterializeAll(ctx, c.Pages, f.PageFolder+"/"+c.SeriesSlug, f.PageFallback)

	now := a.deps.Now()
	u := &upsert{
		row: &models.Chapter{
			SeriesID:      parent.ID,
			Number:        c.Number,
			Title:         c.Title,
			ThumbnailPath: thumb,
			PageCount:     len(pages),
			Views:         c.Views,
			ReleasedAt:    c.ReleasedAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		probe:    func() any { return &models.Chapter{} },
		key:      map[string]any{"series_id": parent.ID, "number": c.Number},
		conflict: []string{"series_id", "number"},
		update:   []string{"title", "thumbnail_path", "page_count", "views", "released_at", "updated_at"},
	}
	u.children = func(id uint) (any, string, any) {
		rows := make([]models.ChapterPage, len(pages))
		for i, p := range pages {
			rows[i] = models.ChapterPage{ChapterID: id, Position: i + 1, ImagePath: p}
		}
		return &models.ChapterPage{}, "chapter_id", rows
	}
	return u, nil
}
