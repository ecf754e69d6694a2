package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		YouTube: YouTubeConfig{
			MaxResults: 20,
		},
		Defaults: DefaultsConfig{
			Volume:  0.7,
			Shuffle: false,
			Repeat:  "off",
		},
		Player: PlayerConfig{
			MPVPath:        "mpv",
			PollIntervalMS: 100,
		},
		Cache: CacheConfig{
			TTLSeconds:   300,
			SweepSeconds: 60,
		},
		TUI: TUIConfig{
			RefreshMS: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.YouTube.MaxResults == 0 {
		c.YouTube.MaxResults = d.YouTube.MaxResults
	}

	if c.Defaults.Volume == 0 {
		c.Defaults.Volume = d.Defaults.Volume
	}
	if c.Defaults.Repeat == "" {
		c.Defaults.Repeat = d.Defaults.Repeat
	}

	if c.Player.MPVPath == "" {
		c.Player.MPVPath = d.Player.MPVPath
	}
	if c.Player.PollIntervalMS == 0 {
		c.Player.PollIntervalMS = d.Player.PollIntervalMS
	}

	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = d.Cache.TTLSeconds
	}
	if c.Cache.SweepSeconds == 0 {
		c.Cache.SweepSeconds = d.Cache.SweepSeconds
	}

	if c.TUI.RefreshMS == 0 {
		c.TUI.RefreshMS = d.TUI.RefreshMS
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
