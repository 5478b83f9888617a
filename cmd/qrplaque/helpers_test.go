package main

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes an empty config file so a qrplaque.yaml in the
// working directory does not leak into tests.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
