package social

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCredentialsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write credentials file: %v", err)
	}
	return path
}

func TestLoadCredentials_Valid(t *testing.T) {
	path := writeCredentialsFile(t, `
credentials:
  - username: creator_one
    token: session-token-1
    proxy: http://proxy.example.com:8080
  - username: creator_two
    token: session-token-2
`)

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}

	if len(creds) != 2 {
		t.Fatalf("Expected 2 credentials, got %d", len(creds))
	}
	if creds[0].Username != "creator_one" {
		t.Errorf("Expected username 'creator_one', got '%s'", creds[0].Username)
	}
	if creds[0].Proxy != "http://proxy.example.com:8080" {
		t.Errorf("Expected proxy set, got '%s'", creds[0].Proxy)
	}
	if creds[1].Proxy != "" {
		t.Errorf("Expected empty proxy for second credential, got '%s'", creds[1].Proxy)
	}
}

func TestLoadCredentials_MissingToken(t *testing.T) {
	path := writeCredentialsFile(t, `
credentials:
  - username: creator_one
`)

	if _, err := LoadCredentials(path); err == nil {
		t.Error("Expected error for credential without token")
	}
}

func TestLoadCredentials_MissingUsername(t *testing.T) {
	path := writeCredentialsFile(t, `
credentials:
  - token: session-token-1
`)

	if _, err := LoadCredentials(path); err == nil {
		t.Error("Expected error for credential without username")
	}
}

func TestLoadCredentials_FileNotFound(t *testing.T) {
	if _, err := LoadCredentials("/nonexistent/credentials.yml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadCredentials_InvalidYAML(t *testing.T) {
	path := writeCredentialsFile(t, "credentials: [not closed")

	if _, err := LoadCredentials(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
