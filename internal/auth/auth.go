// Package auth tracks how the user is authenticated against the assistant
// backend. Login flows live outside the core; this package only carries the
// persisted config and answers "is the user logged in".
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Mode identifies the credential source.
type Mode string

const (
	ModeOAuth  Mode = "oauth"
	ModeAPIKey Mode = "api_key"
	ModeNone   Mode = "none"
)

// Config is the persisted auth configuration.
type Config struct {
	Mode    Mode   `json:"mode"`
	APIKey  string `json:"api_key,omitempty"`
	APIBase string `json:"api_base,omitempty"`
}

// Token is an OAuth token as written by the external login flow.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds, 0 = no expiry
}

// Status summarises the current auth state for the UI.
type Status struct {
	IsLoggedIn bool   `json:"is_logged_in"`
	User       string `json:"user,omitempty"`
	Mode       Mode   `json:"mode"`
}

// Store reads and writes auth state under one config file plus the token
// file the login flow maintains next to it.
type Store struct {
	configPath string
	tokenPath  string
	now        func() time.Time
}

func NewStore(configPath string) *Store {
	return &Store{
		configPath: configPath,
		tokenPath:  filepath.Join(filepath.Dir(configPath), "oauth_token.json"),
		now:        time.Now,
	}
}

// LoadConfig returns the persisted config, defaulting to OAuth mode.
func (s *Store) LoadConfig() Config {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return Config{Mode: ModeOAuth}
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{Mode: ModeOAuth}
	}
	if c.Mode == "" {
		c.Mode = ModeOAuth
	}
	return c
}

// SaveConfig persists the config.
func (s *Store) SaveConfig(c Config) error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return fmt.Errorf("create auth dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth config: %w", err)
	}
	if err := os.WriteFile(s.configPath, data, 0600); err != nil {
		return fmt.Errorf("write auth config: %w", err)
	}
	return nil
}

// SetAPIKey switches to api_key mode with the given credentials.
func (s *Store) SetAPIKey(apiKey, apiBase string) error {
	return s.SaveConfig(Config{Mode: ModeAPIKey, APIKey: apiKey, APIBase: apiBase})
}

// Clear removes both the config and any OAuth token.
func (s *Store) Clear() error {
	if err := os.Remove(s.configPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove auth config: %w", err)
	}
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (s *Store) loadToken() *Token {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		return nil
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil
	}
	if tok.AccessToken == "" {
		return nil
	}
	if tok.ExpiresAt > 0 && s.now().Unix() >= tok.ExpiresAt {
		return nil
	}
	return &tok
}

// CheckStatus reports the effective login state. OAuth wins when a valid
// token exists; otherwise a configured api key counts.
func (s *Store) CheckStatus() Status {
	if s.loadToken() != nil {
		return Status{IsLoggedIn: true, User: "User", Mode: ModeOAuth}
	}
	c := s.LoadConfig()
	if c.Mode == ModeAPIKey && c.APIKey != "" {
		return Status{IsLoggedIn: true, User: "User", Mode: ModeAPIKey}
	}
	return Status{Mode: ModeNone}
}

// Credentials returns the bearer token and base URL override to use for
// backend calls, or an error when not logged in.
func (s *Store) Credentials() (token, apiBase string, err error) {
	if tok := s.loadToken(); tok != nil {
		return tok.AccessToken, "", nil
	}
	c := s.LoadConfig()
	if c.Mode == ModeAPIKey && c.APIKey != "" {
		return c.APIKey, c.APIBase, nil
	}
	return "", "", fmt.Errorf("not logged in")
}
