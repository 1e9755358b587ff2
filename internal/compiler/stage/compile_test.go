package stage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"javox/internal/compiler/stage"
)

func newCompiler(t *testing.T, cfg stage.CompilerConfig) *stage.Compiler {
	t.Helper()
	c, err := stage.NewCompiler(cfg)
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	return c
}

func TestCompileSuccessSubstitutesCanonicalMessage(t *testing.T) {
	javac := writeFakeTool(t, "javac", "exit 0")
	c := newCompiler(t, stage.CompilerConfig{JavacPath: javac})

	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output != "Compilation successful" {
		t.Fatalf("expected canonical message, got %q", res.Output)
	}
}

func TestCompileFailurePassesDiagnosticsVerbatim(t *testing.T) {
	javac := writeFakeTool(t, "javac",
		`echo "Hello.java:3: error: ';' expected" >&2
exit 1`)
	c := newCompiler(t, stage.CompilerConfig{JavacPath: javac})

	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Output, "';' expected") {
		t.Fatalf("expected verbatim diagnostics, got %q", res.Output)
	}
}

func TestCompileMergesStdoutAndStderr(t *testing.T) {
	javac := writeFakeTool(t, "javac",
		`echo "note on stdout"
echo "warning on stderr" >&2
exit 0`)
	c := newCompiler(t, stage.CompilerConfig{JavacPath: javac})

	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if !strings.Contains(res.Output, "note on stdout") || !strings.Contains(res.Output, "warning on stderr") {
		t.Fatalf("expected merged streams, got %q", res.Output)
	}
}

func TestCompileTimeoutKillsProcess(t *testing.T) {
	javac := writeFakeTool(t, "javac", "sleep 10")
	c := newCompiler(t, stage.CompilerConfig{
		JavacPath: javac,
		Timeout:   200 * time.Millisecond,
	})

	start := time.Now()
	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if time.Since(start) > 5*time.Second {
		t.Fatalf("compile did not return promptly after timeout")
	}
	if res.Success || !res.TimedOut {
		t.Fatalf("expected timeout failure, got %+v", res)
	}
	if !strings.Contains(res.Output, "timed out") {
		t.Fatalf("expected timeout-labeled message, got %q", res.Output)
	}
}

func TestCompileMissingBinaryBecomesFailedResult(t *testing.T) {
	c := newCompiler(t, stage.CompilerConfig{JavacPath: "/nonexistent/javac"})

	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if res.Success {
		t.Fatalf("expected failure when binary is missing")
	}
	if !strings.Contains(res.Output, "Compilation error:") {
		t.Fatalf("expected start error in output, got %q", res.Output)
	}
}

func TestCompileOutputCaptureIsBounded(t *testing.T) {
	javac := writeFakeTool(t, "javac",
		`i=0
while [ $i -lt 5000 ]; do
  echo "0123456789 0123456789 0123456789"
  i=$((i+1))
done
exit 1`)
	c := newCompiler(t, stage.CompilerConfig{
		JavacPath:      javac,
		MaxOutputBytes: 1024,
	})

	res := c.Compile(context.Background(), "Hello.java", t.TempDir())
	if len(res.Output) > 2048 {
		t.Fatalf("output capture not bounded: %d bytes", len(res.Output))
	}
	if !strings.Contains(res.Output, "output truncated") {
		t.Fatalf("expected truncation marker, got tail %q", res.Output[len(res.Output)-64:])
	}
}

func TestNewCompilerRejectsMalformedExtraFlags(t *testing.T) {
	_, err := stage.NewCompiler(stage.CompilerConfig{ExtraFlags: `--release "21`})
	if err == nil {
		t.Fatalf("expected shlex parse error")
	}
}
