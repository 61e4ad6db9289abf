package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManagerLifecycle(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase)

	// Create workspace
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Verify workspace exists and has timestamp
	wsPath := mgr.GetPath()
	if wsPath == "" {
		t.Fatal("GetPath() returned empty string")
	}

	if !strings.Contains(filepath.Base(wsPath), "draftsite-") {
		t.Errorf("Expected timestamped directory, got: %s", wsPath)
	}

	if _, err := os.Stat(wsPath); os.IsNotExist(err) {
		t.Errorf("Workspace directory does not exist: %s", wsPath)
	}

	// Subdir creation with nested path components
	subdir, err := mgr.CreateSubdir(filepath.Join("branches", "release", "1.0"))
	if err != nil {
		t.Fatalf("CreateSubdir() failed: %v", err)
	}
	if _, err := os.Stat(subdir); err != nil {
		t.Errorf("Subdirectory does not exist: %s", subdir)
	}

	// Cleanup should remove directory
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}

	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}

	// Cleanup is idempotent once the path is cleared.
	if err := mgr.Cleanup(); err != nil {
		t.Errorf("second Cleanup() failed: %v", err)
	}
}

func TestCreateSubdirBeforeCreate(t *testing.T) {
	mgr := NewManager(t.TempDir())
	if _, err := mgr.CreateSubdir("x"); err == nil {
		t.Fatal("expected error when workspace not created")
	}
}
