package shared

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file, then overridden by the environment.
type Config struct {
	Google      GoogleConfig      `toml:"google"`
	Spreadsheet SpreadsheetConfig `toml:"spreadsheet"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	Identity    IdentityConfig    `toml:"identity"`
	Auth        AuthConfig        `toml:"auth"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// GoogleConfig contains the OAuth2 client registered with Google.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// SpreadsheetConfig describes the layout of the shared ledger spreadsheet.
//
// The defaults in config.example.toml match the sheet the app was built against; change them only together with the sheet.
type SpreadsheetConfig struct {
	ID                    string `toml:"id"`
	SubmissionSheet       string `toml:"submission_sheet"`
	StartRow              int    `toml:"start_row"`
	SubmissionFirstColumn string `toml:"submission_first_column"`
	LinkColumn            string `toml:"link_column"`

	RatingHeaderRow  int    `toml:"rating_header_row"`
	RatingBaseColumn string `toml:"rating_base_column"`
	RatingLastColumn string `toml:"rating_last_column"`

	LeaderboardMatch             string `toml:"leaderboard_match"`
	LeaderboardFirstColumn       string `toml:"leaderboard_first_column"`
	LeaderboardLastColumn        string `toml:"leaderboard_last_column"`
	LeaderboardRatingColumn      string `toml:"leaderboard_rating_column"`
	LeaderboardOriginalRowColumn string `toml:"leaderboard_original_row_column"`
}

// YouTubeConfig contains the playlist kept in sync with the sheet.
type YouTubeConfig struct {
	PlaylistID         string  `toml:"playlist_id"`
	MutationsPerSecond float64 `toml:"mutations_per_second"`
}

// IdentityConfig maps sign-in emails to the display names used in the sheet.
type IdentityConfig struct {
	Names map[string]string `toml:"names"`
}

// AuthConfig contains token handling settings.
type AuthConfig struct {
	RefreshMargin string `toml:"refresh_margin"`
}

// Margin returns the refresh safety margin, falling back to five minutes when unset or malformed.
func (a AuthConfig) Margin() time.Duration {
	if d, err := time.ParseDuration(a.RefreshMargin); err == nil && d >= 0 {
		return d
	}
	return 5 * time.Minute
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	BaseURL      string `toml:"base_url"`
	CookieName   string `toml:"cookie_name"`
	SecureCookie bool   `toml:"secure_cookie"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values with the environment variables used by the original deployment.
//
// A malformed EMAIL_TO_NAME_MAPPING leaves the configured names untouched and is reported as an error so the caller
// can log it; every other override is still applied.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Google.ClientSecret = v
	}
	if v := getenv("GOOGLE_REDIRECT_URL"); v != "" {
		c.Google.RedirectURL = v
	}
	if v := getenv("SPREADSHEET_ID"); v != "" {
		c.Spreadsheet.ID = v
	}
	if v := getenv("YOUTUBE_PLAYLIST_ID"); v != "" {
		c.YouTube.PlaylistID = v
	}

	raw := strings.TrimSpace(getenv("EMAIL_TO_NAME_MAPPING"))
	if raw == "" {
		return nil
	}

	var names map[string]string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return fmt.Errorf("%w: EMAIL_TO_NAME_MAPPING is not a JSON object: %v", ErrConfiguration, err)
	}
	if c.Identity.Names == nil {
		c.Identity.Names = make(map[string]string, len(names))
	}
	for email, name := range names {
		c.Identity.Names[email] = name
	}
	return nil
}

// Validate reports missing settings that every authenticated operation needs.
func (c *Config) Validate() error {
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Spreadsheet.ID == "" {
		return ErrMissingSpreadsheetID
	}
	if c.Spreadsheet.StartRow < 1 || c.Spreadsheet.RatingHeaderRow < 1 {
		return fmt.Errorf("%w: spreadsheet rows are 1-based", ErrConfiguration)
	}
	return nil
}
