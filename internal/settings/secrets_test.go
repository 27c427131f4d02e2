package settings

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
)

func TestSecretsLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "secrets.json")
	secrets := NewSecrets(path, zerolog.Nop())

	got, err := secrets.Get(SecretAPIKey)
	if err != nil {
		t.Fatalf("Get on missing file failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty secret, got %q", got)
	}

	if err := secrets.Store(SecretAPIKey, "abc123:fx"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 600, got %o", info.Mode().Perm())
	}

	got, _ = NewSecrets(path, zerolog.Nop()).Get(SecretAPIKey)
	if got != "abc123:fx" {
		t.Errorf("Expected stored key, got %q", got)
	}

	if err := secrets.Delete(SecretAPIKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := secrets.Delete(SecretAPIKey); err != nil {
		t.Fatalf("Second delete should be a no-op, got %v", err)
	}
	got, _ = secrets.Get(SecretAPIKey)
	if got != "" {
		t.Errorf("Expected secret removed, got %q", got)
	}
}

func TestSecretsRefreshReportsExternalChangesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	secrets := NewSecrets(path, zerolog.Nop())

	if err := secrets.Store("own", "1"); err != nil {
		t.Fatal(err)
	}
	if changed := secrets.refresh(); len(changed) != 0 {
		t.Errorf("Expected own writes to be silent, got %v", changed)
	}

	other := NewSecrets(path, zerolog.Nop())
	if err := other.Store(SecretAPIKey, "external"); err != nil {
		t.Fatal(err)
	}
	if err := other.Delete("own"); err != nil {
		t.Fatal(err)
	}

	changed := secrets.refresh()
	sort.Strings(changed)
	want := []string{SecretAPIKey, "own"}
	sort.Strings(want)
	if len(changed) != len(want) {
		t.Fatalf("Expected changes %v, got %v", want, changed)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("Expected change %q at %d, got %q", want[i], i, changed[i])
		}
	}
}

func TestSecretsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	secrets := NewSecrets(path, zerolog.Nop())
	if _, err := secrets.Get(SecretAPIKey); err == nil {
		t.Error("Expected error for corrupt secrets file")
	}
	if err := secrets.Store(SecretAPIKey, "fresh"); err != nil {
		t.Fatalf("Store should replace corrupt file, got %v", err)
	}
	if got, _ := secrets.Get(SecretAPIKey); got != "fresh" {
		t.Errorf("Expected 'fresh', got %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"abcdefghijkl:fx", "abcd...l:fx"},
	}

	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
