package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./songpick.db" {
			t.Errorf("expected database path ./songpick.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		sheet := config.Spreadsheet
		if sheet.SubmissionSheet != "선곡" {
			t.Errorf("expected submission sheet 선곡, got %s", sheet.SubmissionSheet)
		}
		if sheet.StartRow != 3 {
			t.Errorf("expected start row 3, got %d", sheet.StartRow)
		}
		if sheet.RatingBaseColumn != "U" || sheet.RatingLastColumn != "ZY" {
			t.Errorf("expected rating header U..ZY, got %s..%s", sheet.RatingBaseColumn, sheet.RatingLastColumn)
		}
		if sheet.LeaderboardRatingColumn != "V" || sheet.LeaderboardOriginalRowColumn != "AE" {
			t.Errorf("unexpected leaderboard columns: %+v", sheet)
		}
		if sheet.LinkColumn != "E" {
			t.Errorf("expected link column E, got %s", sheet.LinkColumn)
		}

		if config.Auth.Margin() != 5*time.Minute {
			t.Errorf("expected 5m refresh margin, got %v", config.Auth.Margin())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[google]
client_id = "test_client_id"
client_secret = "test_secret"

[spreadsheet]
id = "sheet-123"
rating_base_column = "W"

[youtube]
playlist_id = "PL123"

[identity.names]
"kim@example.com" = "김철수"

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Google.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Google.ClientID)
		}
		if config.Spreadsheet.RatingBaseColumn != "W" {
			t.Errorf("expected overridden rating column W, got %s", config.Spreadsheet.RatingBaseColumn)
		}
		if config.Spreadsheet.SubmissionSheet != "선곡" {
			t.Errorf("expected default submission sheet to survive partial file, got %q", config.Spreadsheet.SubmissionSheet)
		}
		if config.Identity.Names["kim@example.com"] != "김철수" {
			t.Errorf("expected identity mapping to load, got %v", config.Identity.Names)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"GOOGLE_CLIENT_ID":      "env-id",
			"GOOGLE_CLIENT_SECRET":  "env-secret",
			"SPREADSHEET_ID":        "env-sheet",
			"YOUTUBE_PLAYLIST_ID":   "env-playlist",
			"EMAIL_TO_NAME_MAPPING": `{"lee@example.com":"이영희"}`,
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(func(k string) string { return env[k] }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Google.ClientID != "env-id" || config.Google.ClientSecret != "env-secret" {
			t.Errorf("expected env credentials, got %+v", config.Google)
		}
		if config.Spreadsheet.ID != "env-sheet" {
			t.Errorf("expected env spreadsheet id, got %s", config.Spreadsheet.ID)
		}
		if config.YouTube.PlaylistID != "env-playlist" {
			t.Errorf("expected env playlist id, got %s", config.YouTube.PlaylistID)
		}
		if config.Identity.Names["lee@example.com"] != "이영희" {
			t.Errorf("expected env mapping, got %v", config.Identity.Names)
		}
	})

	t.Run("ApplyEnv Malformed Mapping", func(t *testing.T) {
		env := map[string]string{
			"SPREADSHEET_ID":        "env-sheet",
			"EMAIL_TO_NAME_MAPPING": `{not json`,
		}

		config := DefaultConfig()
		err := config.ApplyEnv(func(k string) string { return env[k] })
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if config.Spreadsheet.ID != "env-sheet" {
			t.Error("other overrides should still apply")
		}
		if len(config.Identity.Names) != 0 {
			t.Errorf("mapping should stay empty, got %v", config.Identity.Names)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected missing credentials, got %v", err)
		}

		config.Google.ClientID = "id"
		config.Google.ClientSecret = "secret"
		if err := config.Validate(); !errors.Is(err, ErrMissingSpreadsheetID) {
			t.Errorf("expected missing spreadsheet id, got %v", err)
		}

		config.Spreadsheet.ID = "sheet"
		config.Spreadsheet.StartRow = 0
		if err := config.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Errorf("expected configuration error for zero start row, got %v", err)
		}
	})

	t.Run("Margin Fallback", func(t *testing.T) {
		if got := (AuthConfig{RefreshMargin: "bogus"}).Margin(); got != 5*time.Minute {
			t.Errorf("expected fallback margin, got %v", got)
		}
		if got := (AuthConfig{RefreshMargin: "90s"}).Margin(); got != 90*time.Second {
			t.Errorf("expected 90s, got %v", got)
		}
	})
}
