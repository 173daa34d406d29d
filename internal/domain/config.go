package domain

import "time"

// Config is the application configuration snapshot. It is loaded and
// validated once at startup; nothing re-reads configuration mid-operation.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Selection    SelectionConfig    `mapstructure:"selection"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir          string        `mapstructure:"base_dir"`
	OutputDir        string        `mapstructure:"output_dir"`
	LogsDir          string        `mapstructure:"logs_dir"`
	OutputTemplate   string        `mapstructure:"output_template"`
	TransientRetries int           `mapstructure:"transient_retries"` // same-selector retry bound
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	ConcurrentLimit  int           `mapstructure:"concurrent_limit"` // parallel URLs, never one URL
	AutoStartWorkers bool          `mapstructure:"auto_start_workers"`
}

// SelectionConfig is the quality/size preference and related knobs for the
// selector chain. The recognized option set is closed; anything outside it
// fails validation at load time.
type SelectionConfig struct {
	Quality    Tier   `mapstructure:"quality"`
	Size       Tier   `mapstructure:"size"`
	Container  string `mapstructure:"container"`   // preferred output container (mp4, webm, mkv)
	DebugLevel string `mapstructure:"debug_level"` // none, min, max
}

// Preference returns the configured quality/size pair.
func (s SelectionConfig) Preference() QualityPreference {
	return QualityPreference{Quality: s.Quality, Size: s.Size}
}

// EngineConfig configures the external extraction engine invocation.
// Timeout and retry values here are passed through to the engine, which owns
// its own backoff; the core never re-implements timers.
type EngineConfig struct {
	Binary            string        `mapstructure:"binary"`
	FFmpegBinary      string        `mapstructure:"ffmpeg_binary"`
	CookieFile        string        `mapstructure:"cookie_file"`
	SocketTimeout     time.Duration `mapstructure:"socket_timeout"`
	FragmentRetries   int           `mapstructure:"fragment_retries"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	WriteSubtitles    bool          `mapstructure:"write_subtitles"`
	WriteThumbnail    bool          `mapstructure:"write_thumbnail"`
	RemuxAfterSuccess bool          `mapstructure:"remux_after_success"`
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath    string        `mapstructure:"database_path"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	AutoExitOnEmpty bool          `mapstructure:"auto_exit_on_empty"`
	EmptyWaitTime   time.Duration `mapstructure:"empty_wait_time"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir:          "$HOME/Downloads/vidfetch",
			OutputDir:        "$HOME/Downloads/vidfetch/completed",
			LogsDir:          "$HOME/Downloads/vidfetch/logs",
			OutputTemplate:   "%(uploader)s - %(title)s.%(ext)s",
			TransientRetries: 5,
			RetryDelay:       30 * time.Second,
			ConcurrentLimit:  1,
			AutoStartWorkers: true,
		},
		Selection: SelectionConfig{
			Quality:    TierHigh,
			Size:       TierHigh,
			Container:  "mp4",
			DebugLevel: "min",
		},
		Engine: EngineConfig{
			Binary:            "yt-dlp",
			FFmpegBinary:      "ffmpeg",
			SocketTimeout:     30 * time.Second,
			FragmentRetries:   5,
			ProbeTimeout:      60 * time.Second,
			WriteSubtitles:    true,
			WriteThumbnail:    true,
			RemuxAfterSuccess: true,
		},
		Queue: QueueConfig{
			DatabasePath:    "$HOME/Downloads/vidfetch/config/queue.db",
			CheckInterval:   10 * time.Second,
			AutoExitOnEmpty: false,
			EmptyWaitTime:   5 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Sound:   true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
