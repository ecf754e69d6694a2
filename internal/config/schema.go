package config

// Config is the root configuration structure.
type Config struct {
	YouTube  YouTubeConfig  `toml:"youtube"`
	Defaults DefaultsConfig `toml:"defaults"`
	Player   PlayerConfig   `toml:"player"`
	Cache    CacheConfig    `toml:"cache"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	APIKey     string `toml:"api_key"`
	MaxResults int    `toml:"max_results"`
}

// DefaultsConfig holds default playback settings.
type DefaultsConfig struct {
	Volume  float64 `toml:"volume"` // 0..1
	Shuffle bool    `toml:"shuffle"`
	Repeat  string  `toml:"repeat"`
}

// PlayerConfig holds playback-engine settings.
type PlayerConfig struct {
	MPVPath        string `toml:"mpv_path"`
	SocketDir      string `toml:"socket_dir"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// CacheConfig holds search-cache settings.
type CacheConfig struct {
	TTLSeconds   int `toml:"ttl_seconds"`
	SweepSeconds int `toml:"sweep_seconds"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	RefreshMS int `toml:"refresh_ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
