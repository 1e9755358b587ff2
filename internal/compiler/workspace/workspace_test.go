package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"javox/internal/compiler/workspace"
)

func TestCreateProducesUniqueOwnerOnlyDirs(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root)
	ctx := context.Background()

	a, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	b, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if a.Path() == b.Path() {
		t.Fatalf("expected unique workspace paths")
	}

	info, err := os.Stat(a.Path())
	if err != nil {
		t.Fatalf("stat workspace: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Fatalf("expected owner-only permissions, got %o", perm)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := workspace.NewManager(t.TempDir())
	ctx := context.Background()

	ws, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	defer m.Destroy(ctx, ws)

	if err := ws.WriteText("Hello.java", "public class Hello {}"); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if err := ws.WriteBytes("Hello.class", []byte{0xca, 0xfe, 0xba, 0xbe}); err != nil {
		t.Fatalf("write bytes: %v", err)
	}
	data, err := ws.ReadBytes("Hello.class")
	if err != nil {
		t.Fatalf("read bytes: %v", err)
	}
	if len(data) != 4 || data[0] != 0xca {
		t.Fatalf("unexpected data %v", data)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	m := workspace.NewManager(t.TempDir())
	ctx := context.Background()

	ws, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	defer m.Destroy(ctx, ws)

	for _, name := range []string{"../escape.txt", "../../etc/passwd", "a/../../escape"} {
		if err := ws.WriteText(name, "x"); err == nil {
			t.Fatalf("expected write outside workspace to be rejected: %q", name)
		}
		if _, err := ws.ReadBytes(name); err == nil {
			t.Fatalf("expected read outside workspace to be rejected: %q", name)
		}
	}
}

func TestDestroyRemovesEverything(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root)
	ctx := context.Background()

	ws, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if err := ws.WriteText("nested.txt", "data"); err != nil {
		t.Fatalf("write: %v", err)
	}

	m.Destroy(ctx, ws)

	if _, err := os.Stat(ws.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected workspace to be gone, got %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no residual directories, found %d", len(entries))
	}
}

func TestDestroyToleratesNilAndRepeatedCalls(t *testing.T) {
	m := workspace.NewManager(t.TempDir())
	ctx := context.Background()

	m.Destroy(ctx, nil)

	ws, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	m.Destroy(ctx, ws)
	m.Destroy(ctx, ws) // second destroy of a gone directory must not fail
}

func TestManagerCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "deep", "work")
	m := workspace.NewManager(root)

	ws, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("create with missing root: %v", err)
	}
	if _, err := os.Stat(ws.Path()); err != nil {
		t.Fatalf("stat workspace: %v", err)
	}
}
