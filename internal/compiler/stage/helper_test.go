package stage_test

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFakeTool writes an executable shell script standing in for the
// external compiler or runtime binary.
func writeFakeTool(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}
