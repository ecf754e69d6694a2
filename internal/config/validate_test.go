package config

import "testing"

func TestValidateDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"volume above 1", func(c *Config) { c.Defaults.Volume = 1.5 }},
		{"negative volume", func(c *Config) { c.Defaults.Volume = -0.1 }},
		{"unknown repeat mode", func(c *Config) { c.Defaults.Repeat = "track" }},
		{"busy-loop poll interval", func(c *Config) { c.Player.PollIntervalMS = 5 }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"max_results too large", func(c *Config) { c.YouTube.MaxResults = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Defaults.Volume != 0.7 {
		t.Errorf("Volume = %v, want 0.7", cfg.Defaults.Volume)
	}
	if cfg.Defaults.Repeat != "off" {
		t.Errorf("Repeat = %q, want %q", cfg.Defaults.Repeat, "off")
	}
	if cfg.Player.PollIntervalMS != 100 {
		t.Errorf("PollIntervalMS = %d, want 100", cfg.Player.PollIntervalMS)
	}
	if cfg.Player.MPVPath != "mpv" {
		t.Errorf("MPVPath = %q, want %q", cfg.Player.MPVPath, "mpv")
	}
	if cfg.Cache.TTLSeconds != 300 {
		t.Errorf("TTLSeconds = %d, want 300", cfg.Cache.TTLSeconds)
	}
}
