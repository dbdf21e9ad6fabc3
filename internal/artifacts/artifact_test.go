package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cdgriffith/pi-streaming-setup/internal/events"
)

func TestInstallNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "index.html")
	installer := NewInstaller(events.New())

	err := installer.Install(FileArtifact{
		Path:      path,
		Content:   []byte("<html></html>"),
		Mode:      0o644,
		Overwrite: false,
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading installed file failed: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("Unexpected content: %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Expected mode 0644, got %04o", info.Mode().Perm())
	}
}

func TestInstallExistingWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.service")
	original := []byte("original content")
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatalf("Seeding file failed: %v", err)
	}
	installer := NewInstaller(events.New())

	err := installer.Install(FileArtifact{
		Path:      path,
		Content:   []byte("replacement"),
		Mode:      0o644,
		Overwrite: false,
	})
	if err != nil {
		t.Fatalf("Install returned error for protected file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading file failed: %v", err)
	}
	if string(data) != string(original) {
		t.Errorf("Protected file was modified: %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Protected file mode changed: %04o", info.Mode().Perm())
	}
}

func TestInstallExistingWithOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.sh")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatalf("Seeding file failed: %v", err)
	}
	installer := NewInstaller(events.New())

	err := installer.Install(FileArtifact{
		Path:      path,
		Content:   []byte("new"),
		Mode:      0o755,
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("Expected replaced content, got %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o755 {
		t.Errorf("Expected mode reasserted to 0755, got %04o", info.Mode().Perm())
	}
}
