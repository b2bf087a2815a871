package fetch

// Config holds configuration for the HTTP asset fetcher.
type Config struct {
	// TimeoutSeconds bounds a single download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// UserAgent is sent with every request. Some image hosts reject empty agents.
	UserAgent string `mapstructure:"user_agent" default:"content-importer/1.0"`
	// Referer is sent when set; several manga CDNs require it.
	Referer string `mapstructure:"referer" default:""`
	// MaxBytes rejects responses larger than this. Zero disables the check.
	MaxBytes int `mapstructure:"max_bytes" default:"20971520"`
	// Attempts is the number of tries for 5xx/429 responses and network errors.
	Attempts int `mapstructure:"attempts" default:"2"`
}
