package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test source defaults
	if cfg.Source.Driver != DriverMySQL {
		t.Errorf("expected source driver 'mysql', got %s", cfg.Source.Driver)
	}
	if cfg.Source.Port != 3306 {
		t.Errorf("expected source port 3306, got %d", cfg.Source.Port)
	}
	if cfg.Source.TLS != "preferred" {
		t.Errorf("expected source TLS 'preferred', got %s", cfg.Source.TLS)
	}

	// Test schema defaults
	if cfg.Schema.VisitsTable != "visits" {
		t.Errorf("expected visits_table 'visits', got %s", cfg.Schema.VisitsTable)
	}
	if cfg.Schema.AnswersColumn != "responses" {
		t.Errorf("expected answers_column 'responses', got %s", cfg.Schema.AnswersColumn)
	}

	// Test output defaults
	if cfg.Output.DateFormat != "%Y-%m-%d" {
		t.Errorf("expected date_format '%%Y-%%m-%%d', got %s", cfg.Output.DateFormat)
	}
	if cfg.Output.FilenameStyle != "dated" {
		t.Errorf("expected filename_style 'dated', got %s", cfg.Output.FilenameStyle)
	}

	// Test render defaults
	if cfg.Render.MaxDepth != 64 {
		t.Errorf("expected max_depth 64, got %d", cfg.Render.MaxDepth)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("expected logging output 'stderr', got %s", cfg.Logging.Output)
	}
}

func TestConfigExportsMap(t *testing.T) {
	cfg := &Config{
		Exports: map[string]ExportConfig{
			"corner_shop": {
				Entity: "Corner Shop",
				Where:  "shop_id = 42",
			},
			"north": {
				Entity:        "North Region",
				FilenameStyle: "visits",
			},
		},
	}

	if len(cfg.Exports) != 2 {
		t.Errorf("expected 2 exports, got %d", len(cfg.Exports))
	}

	exp, exists := cfg.Exports["corner_shop"]
	if !exists {
		t.Error("expected 'corner_shop' export to exist")
	}
	if exp.Entity != "Corner Shop" {
		t.Errorf("expected entity 'Corner Shop', got %s", exp.Entity)
	}
}

func TestGetExportStyle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exports = map[string]ExportConfig{
		"custom":  {Entity: "A", FilenameStyle: "visits"},
		"default": {Entity: "B"},
	}

	if got := cfg.GetExportStyle("custom"); got != "visits" {
		t.Errorf("expected export style 'visits', got %s", got)
	}
	if got := cfg.GetExportStyle("default"); got != "dated" {
		t.Errorf("expected global style 'dated', got %s", got)
	}
	if got := cfg.GetExportStyle("missing"); got != "dated" {
		t.Errorf("expected global style for unknown export, got %s", got)
	}
}
