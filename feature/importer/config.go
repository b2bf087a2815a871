package importer

// Config holds configuration for an import run.
type Config struct {
	// Concurrency bounds records in flight per phase.
	Concurrency int `mapstructure:"concurrency" default:"8"`
	// MaxAttempts bounds transaction retries on transient errors.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// BaseDelayMS is the first retry delay; it doubles per attempt.
	BaseDelayMS int `mapstructure:"base_delay_ms" default:"200"`
	// MaxDelayMS caps the retry delay.
	MaxDelayMS int `mapstructure:"max_delay_ms" default:"5000"`
	// Users lists paths or glob patterns of user files.
	Users []string `mapstructure:"users" default:""`
	// Series lists paths or glob patterns of series files.
	Series []string `mapstructure:"series" default:""`
	// Chapters lists paths or glob patterns of chapter files.
	Chapters []string `mapstructure:"chapters" default:""`
}

// MaxConcurrency is the hard ceiling for Concurrency.
const MaxConcurrency = 32
