package config

import "testing"

func TestDefault(t *testing.T) {
	c := Default()
	if err := Validate(c); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if c.Engine != EngineVips {
		t.Fatalf("engine %q, want vips", c.Engine)
	}
	if c.DefaultQuality != 85 {
		t.Fatalf("quality %d, want 85", c.DefaultQuality)
	}
	if c.MaxInputBytes != 64<<20 {
		t.Fatalf("max input %d, want 64 MiB", c.MaxInputBytes)
	}
	if c.Storage.Backend != "local" {
		t.Fatalf("backend %q, want local", c.Storage.Backend)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine = "imagemagick" }},
		{"quality too high", func(c *Config) { c.DefaultQuality = 101 }},
		{"quality zero", func(c *Config) { c.DefaultQuality = 0 }},
		{"negative input limit", func(c *Config) { c.MaxInputBytes = -1 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			if err := Validate(c); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
