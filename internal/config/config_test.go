package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigOptional_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "absent.yaml"), true)
	if err != nil {
		t.Fatalf("LoadConfigOptional() error = %v", err)
	}
	if cfg.Platform != DefaultPlatform {
		t.Errorf("Platform = %q, want %q", cfg.Platform, DefaultPlatform)
	}
	if cfg.OAuthProvider != DefaultOAuthProvider {
		t.Errorf("OAuthProvider = %q, want %q", cfg.OAuthProvider, DefaultOAuthProvider)
	}
	if cfg.RedirectURL != DefaultRedirectURL {
		t.Errorf("RedirectURL = %q, want %q", cfg.RedirectURL, DefaultRedirectURL)
	}
	if !cfg.Guard.RequiresAuth() {
		t.Error("RequiresAuth() = false, want true by default")
	}
	if want := []string{"/sign-in", "/sign-up"}; !reflect.DeepEqual(cfg.Guard.AuthPaths, want) {
		t.Errorf("AuthPaths = %v, want %v", cfg.Guard.AuthPaths, want)
	}
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_ParsesYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
endpoint: https://cloud.example.com/v1/
project-id: proj-file
database-id: db-file
collections:
  properties: props
  galleries: gals
  reviews: revs
  agents: agents
guard:
  require-auth: false
  auth-paths: ["/login"]
debug: true
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APPWRITE_PROJECT_ID", "proj-env")
	t.Setenv("EXPO_PUBLIC_APPWRITE_DATABASE_ID", "db-expo")
	t.Setenv("APPWRITE_ENDPOINT", "   ")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint != "https://cloud.example.com/v1" {
		t.Errorf("Endpoint = %q, want trailing slash trimmed and blank env ignored", cfg.Endpoint)
	}
	if cfg.ProjectID != "proj-env" {
		t.Errorf("ProjectID = %q, want env override", cfg.ProjectID)
	}
	if cfg.DatabaseID != "db-expo" {
		t.Errorf("DatabaseID = %q, want EXPO_PUBLIC fallback", cfg.DatabaseID)
	}
	if cfg.Collections.Agents != "agents" {
		t.Errorf("Collections.Agents = %q", cfg.Collections.Agents)
	}
	if cfg.Guard.RequiresAuth() {
		t.Error("RequiresAuth() = true, want false from file")
	}
	if !reflect.DeepEqual(cfg.Guard.AuthPaths, []string{"/login"}) {
		t.Errorf("AuthPaths = %v", cfg.Guard.AuthPaths)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if missing := cfg.Validate(); len(missing) != 0 {
		t.Errorf("Validate() = %v, want none", missing)
	}
}

func TestValidate_ReportsMissingIdentifiers(t *testing.T) {
	t.Parallel()

	cfg := &Config{Endpoint: "https://x", ProjectID: "p"}
	got := cfg.Validate()
	want := []string{"database-id", "collections.properties", "collections.galleries", "collections.reviews", "collections.agents"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %v, want %v", got, want)
	}
}

func TestEnsureConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")

	created, err := EnsureConfigFile(configFile)
	if err != nil || created {
		t.Fatalf("EnsureConfigFile() without template = (%v, %v), want (false, nil)", created, err)
	}

	template := "project-id: from-template\n"
	if err = os.WriteFile(filepath.Join(dir, ExampleFileName), []byte(template), 0o600); err != nil {
		t.Fatal(err)
	}
	created, err = EnsureConfigFile(configFile)
	if err != nil || !created {
		t.Fatalf("EnsureConfigFile() = (%v, %v), want (true, nil)", created, err)
	}
	data, err := os.ReadFile(configFile)
	if err != nil || string(data) != template {
		t.Fatalf("config contents = %q, %v", data, err)
	}

	if err = os.WriteFile(configFile, []byte("project-id: edited\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if created, err = EnsureConfigFile(configFile); err != nil || created {
		t.Fatalf("EnsureConfigFile() on existing file = (%v, %v), want (false, nil)", created, err)
	}
}
