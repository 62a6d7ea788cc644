package mounts

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

//go:embed testdata
var testdata embed.FS

func TestMounts(t *testing.T) {

	// a disk directory holding the same file name as the embedded
	// testdata, but with different contents.
	diskDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(diskDir, "probe.sql"), []byte("SELECT 2;\n"), 0644); err != nil {
		t.Fatalf("could not write disk fixture: %v", err)
	}

	tests := []struct {
		name         string
		mountName    string
		dirPath      string
		wantContents string
		wantErr      string
	}{
		{
			name:         "embedded fs mount",
			mountName:    "testdata/sql",
			dirPath:      "",
			wantContents: "SELECT 1;",
		},
		{
			name:         "directory fs mount overrides embedded",
			mountName:    "testdata/sql",
			dirPath:      diskDir,
			wantContents: "SELECT 2;",
		},
		{
			name:      "missing directory",
			mountName: "testdata/sql",
			dirPath:   filepath.Join(diskDir, "doesNotExist"),
			wantErr:   "new mount at",
		},
		{
			name:      "empty mount name",
			mountName: "",
			wantErr:   "no mount name",
		},
		{
			name:      "invalid mount name",
			mountName: "testdata/",
			wantErr:   "not a valid fs path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mount, err := NewFileMount(tt.mountName, testdata, tt.dirPath)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error got %v, want one containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected mount error: %v", err)
			}

			contents, err := fs.ReadFile(mount, "probe.sql")
			if err != nil {
				t.Fatalf("could not read mounted file: %v", err)
			}
			if got := strings.TrimSpace(string(contents)); got != tt.wantContents {
				t.Errorf("contents got %q want %q", got, tt.wantContents)
			}
		})
	}
}
