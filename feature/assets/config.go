package assets

// Config holds configuration for asset materialization.
type Config struct {
	// Backend selects the sink: "local" or "s3".
	Backend string `mapstructure:"backend" default:"local"`
	// LocalDir is the root directory of the local sink.
	LocalDir string `mapstructure:"local_dir" default:"./public/uploads"`
	// PublicPrefix is prepended to stored keys to form the materialized path.
	PublicPrefix string `mapstructure:"public_prefix" default:"/uploads"`
	// IndexPath is the durable URL/hash index file.
	IndexPath string `mapstructure:"index_path" default:"./data/asset-index.json"`
	// DefaultExt is used when neither the URL nor the content reveals a type.
	DefaultExt string `mapstructure:"default_ext" default:".jpg"`
	// Concurrency bounds parallel downloads per record.
	Concurrency int `mapstructure:"concurrency" default:"3"`

	// CoverFolder receives series covers.
	CoverFolder string `mapstructure:"cover_folder" default:"covers"`
	// BannerFolder receives series banners.
	BannerFolder string `mapstructure:"banner_folder" default:"banners"`
	// PageFolder receives chapter pages.
	PageFolder string `mapstructure:"page_folder" default:"chapters"`
	// AvatarFolder receives user avatars.
	AvatarFolder string `mapstructure:"avatar_folder" default:"avatars"`
	// ThumbFolder receives chapter thumbnails.
	ThumbFolder string `mapstructure:"thumb_folder" default:"thumbnails"`

	// CoverFallback is returned when a cover cannot be materialized.
	CoverFallback string `mapstructure:"cover_fallback" default:"/images/placeholder-cover.jpg"`
	// BannerFallback is returned when a banner cannot be materialized.
	BannerFallback string `mapstructure:"banner_fallback" default:""`
	// PageFallback is returned when a page cannot be materialized.
	PageFallback string `mapstructure:"page_fallback" default:"/images/placeholder-page.jpg"`
	// AvatarFallback is returned when an avatar cannot be materialized.
	AvatarFallback string `mapstructure:"avatar_fallback" default:"/images/default-avatar.png"`
	// ThumbFallback is returned when a thumbnail cannot be materialized.
	ThumbFallback string `mapstructure:"thumb_fallback" default:"/images/placeholder-cover.jpg"`
}
