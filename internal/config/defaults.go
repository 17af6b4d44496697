package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Library.Root == "" {
		cfg.Library.Root = "Zotero"
	}
	if cfg.Library.BusyTimeoutMS < 0 {
		cfg.Library.BusyTimeoutMS = 0
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "sqlite"
	}
	if cfg.History.Path == "" {
		if cfg.History.Backend == "file" {
			cfg.History.Path = ".cache/rofi-zotero/history"
		} else {
			cfg.History.Path = ".cache/rofi-zotero/history.db"
		}
	}
	if cfg.History.MaxEntries <= 0 {
		cfg.History.MaxEntries = 25
	}
	if cfg.Open.Command == "" {
		cfg.Open.Command = "xdg-open"
	}
	if cfg.Matching.Method == "" {
		cfg.Matching.Method = "normal"
	}
	if cfg.Matching.NegateChar == "" {
		cfg.Matching.NegateChar = "-"
	}
	if cfg.Matching.MaxTypos <= 0 {
		cfg.Matching.MaxTypos = 1
	}
	if cfg.Watch.OutputPath == "" {
		cfg.Watch.OutputPath = ".cache/rofi-zotero/entries.txt"
	}
}
