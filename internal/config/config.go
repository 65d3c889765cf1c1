// Package config provides configuration management for the restate client.
// It handles loading and parsing YAML configuration files, overlaying values from the
// process environment, and exposes structured access to the backend identifiers,
// OAuth redirect settings, logging switches, and route guard rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPlatform is the application bundle identifier registered with the backend.
	DefaultPlatform = "com.anu.restate"

	// DefaultOAuthProvider is the OAuth provider used by the login handshake.
	DefaultOAuthProvider = "google"

	// DefaultRedirectURL is the loopback address the browser is sent back to after login.
	DefaultRedirectURL = "http://localhost:8085/"

	// DefaultAuthDir holds the persisted session secret.
	DefaultAuthDir = "~/.restate"
)

// Config represents the application's configuration, loaded from a YAML file and
// overridden by environment variables.
type Config struct {
	// Endpoint is the backend API endpoint, e.g. "https://cloud.appwrite.io/v1".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// ProjectID identifies the backend project.
	ProjectID string `yaml:"project-id" json:"project-id"`

	// Platform is the application platform/bundle identifier.
	Platform string `yaml:"platform" json:"platform"`

	// DatabaseID identifies the database holding the resource collections.
	DatabaseID string `yaml:"database-id" json:"database-id"`

	// Collections maps each resource type to its collection identifier.
	Collections Collections `yaml:"collections" json:"collections"`

	// OAuthProvider is the provider id passed to the token creation call.
	OAuthProvider string `yaml:"oauth-provider" json:"oauth-provider"`

	// RedirectURL is the base of the application redirect target. The browser session
	// listens on its host and port.
	RedirectURL string `yaml:"redirect-url" json:"redirect-url"`

	// NoBrowser prints the authorization URL instead of opening a browser.
	NoBrowser bool `yaml:"no-browser" json:"no-browser"`

	// AuthDir is where the session secret is persisted between runs.
	AuthDir string `yaml:"auth-dir" json:"auth-dir"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// Realtime enables the account event subscription that refreshes the session state.
	Realtime bool `yaml:"realtime" json:"realtime"`

	// Guard configures redirect rules for the terminal client.
	Guard GuardConfig `yaml:"guard" json:"guard"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile writes logs to a rotating file instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB caps the log directory size. <= 0 disables the cleaner.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`
}

// Collections holds one collection identifier per resource type.
type Collections struct {
	Properties string `yaml:"properties" json:"properties"`
	Galleries  string `yaml:"galleries" json:"galleries"`
	Reviews    string `yaml:"reviews" json:"reviews"`
	Agents     string `yaml:"agents" json:"agents"`
}

// GuardConfig holds the route guard settings.
type GuardConfig struct {
	// RequireAuth redirects unauthenticated users away from protected routes.
	// A nil value means true.
	RequireAuth *bool `yaml:"require-auth,omitempty" json:"require-auth,omitempty"`

	// AuthPaths lists the auth-only routes (sign-in, sign-up).
	AuthPaths []string `yaml:"auth-paths,omitempty" json:"auth-paths,omitempty"`
}

// RequiresAuth reports the effective require-auth flag.
func (g GuardConfig) RequiresAuth() bool {
	if g.RequireAuth == nil {
		return true
	}
	return *g.RequireAuth
}

// envBindings lists every environment override. Later names are fallbacks.
var envBindings = []struct {
	keys  []string
	apply func(*Config, string)
}{
	{[]string{"APPWRITE_ENDPOINT", "EXPO_PUBLIC_APPWRITE_ENDPOINT"}, func(c *Config, v string) { c.Endpoint = v }},
	{[]string{"APPWRITE_PROJECT_ID", "EXPO_PUBLIC_APPWRITE_PROJECT_ID"}, func(c *Config, v string) { c.ProjectID = v }},
	{[]string{"APPWRITE_PLATFORM", "EXPO_PUBLIC_APPWRITE_PLATFORM"}, func(c *Config, v string) { c.Platform = v }},
	{[]string{"APPWRITE_DATABASE_ID", "EXPO_PUBLIC_APPWRITE_DATABASE_ID"}, func(c *Config, v string) { c.DatabaseID = v }},
	{[]string{"APPWRITE_PROPERTIES_COLLECTION_ID", "EXPO_PUBLIC_APPWRITE_PROPERTIES_COLLECTION_ID"}, func(c *Config, v string) { c.Collections.Properties = v }},
	{[]string{"APPWRITE_GALLERIES_COLLECTION_ID", "EXPO_PUBLIC_APPWRITE_GALLERIES_COLLECTION_ID"}, func(c *Config, v string) { c.Collections.Galleries = v }},
	{[]string{"APPWRITE_REVIEWS_COLLECTION_ID", "EXPO_PUBLIC_APPWRITE_REVIEWS_COLLECTION_ID"}, func(c *Config, v string) { c.Collections.Reviews = v }},
	{[]string{"APPWRITE_AGENTS_COLLECTION_ID", "EXPO_PUBLIC_APPWRITE_AGENTS_COLLECTION_ID"}, func(c *Config, v string) { c.Collections.Agents = v }},
	{[]string{"RESTATE_REDIRECT_URL"}, func(c *Config, v string) { c.RedirectURL = v }},
	{[]string{"RESTATE_AUTH_DIR"}, func(c *Config, v string) { c.AuthDir = v }},
	{[]string{"RESTATE_PROXY_URL"}, func(c *Config, v string) { c.ProxyURL = v }},
}

// LoadConfig reads the YAML file at configFile, then applies environment overrides
// and defaults. A missing file is an error.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads the YAML file at configFile. When optional is true, a missing
// or empty file yields a configuration built from the environment and defaults only.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !optional || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		data = nil
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overlays environment values onto the configuration. Blank values are ignored.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if cfg == nil || lookup == nil {
		return
	}
	for _, binding := range envBindings {
		for _, key := range binding.keys {
			if value, ok := lookup(key); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					binding.apply(cfg, trimmed)
					break
				}
			}
		}
	}
}

func (cfg *Config) applyDefaults() {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if strings.TrimSpace(cfg.Platform) == "" {
		cfg.Platform = DefaultPlatform
	}
	if strings.TrimSpace(cfg.OAuthProvider) == "" {
		cfg.OAuthProvider = DefaultOAuthProvider
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	if strings.TrimSpace(cfg.AuthDir) == "" {
		cfg.AuthDir = DefaultAuthDir
	}
	if len(cfg.Guard.AuthPaths) == 0 {
		cfg.Guard.AuthPaths = []string{"/sign-in", "/sign-up"}
	}
}

// Validate lists the backend identifiers that are missing. The client still starts
// without them; callers decide whether to warn.
func (cfg *Config) Validate() []string {
	if cfg == nil {
		return []string{"config"}
	}
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("endpoint", cfg.Endpoint)
	check("project-id", cfg.ProjectID)
	check("database-id", cfg.DatabaseID)
	check("collections.properties", cfg.Collections.Properties)
	check("collections.galleries", cfg.Collections.Galleries)
	check("collections.reviews", cfg.Collections.Reviews)
	check("collections.agents", cfg.Collections.Agents)
	return missing
}
