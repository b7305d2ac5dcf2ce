package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithinDir(t *testing.T) {
	tmp := t.TempDir()
	safe := filepath.Join(tmp, "safe")
	unsafe := filepath.Join(tmp, "unsafe")
	for _, d := range []string{safe, unsafe} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(unsafe, filepath.Join(safe, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"dir itself", safe, true},
		{"nested new file", filepath.Join(safe, "a", "b.json"), true},
		{"dot dot escape", filepath.Join(safe, "..", "unsafe"), false},
		{"sibling", unsafe, false},
		{"symlinked parent", filepath.Join(safe, "link", "new.json"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithinDir(tt.path, safe)
			if err != nil {
				t.Fatalf("WithinDir: %v", err)
			}
			if got != tt.want {
				t.Errorf("WithinDir(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)
	if err := os.Symlink("/", filepath.Join(cwd, "root")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{"relative", "output", false},
		{"nested", "results/stop-bd", false},
		{"working dir", ".", true},
		{"filesystem root", "/", true},
		{"temp dir itself", os.TempDir(), true},
		{"escape through symlink", "root/etc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputDir(tt.dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOutputDir(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsafePath) {
				t.Errorf("error %v is not ErrUnsafePath", err)
			}
		})
	}
}
