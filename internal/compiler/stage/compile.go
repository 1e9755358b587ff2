package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"javox/internal/compiler/result"
	"javox/pkg/utils/logger"
)

const (
	defaultCompileTimeout = 10 * time.Second
	compileSuccessMessage = "Compilation successful"
)

// CompilerConfig controls the javac invocation.
type CompilerConfig struct {
	JavacPath      string
	ExtraFlags     string // shell-style string, e.g. "--release 21"
	Timeout        time.Duration
	MaxOutputBytes int64
}

// Compiler runs javac against a source file inside a workspace.
type Compiler struct {
	cfg        CompilerConfig
	extraFlags []string
}

// NewCompiler creates a compile stage. Extra flags are parsed once,
// shell-style.
func NewCompiler(cfg CompilerConfig) (*Compiler, error) {
	if cfg.JavacPath == "" {
		cfg.JavacPath = "javac"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCompileTimeout
	}
	extra, err := shlex.Split(cfg.ExtraFlags)
	if err != nil {
		return nil, fmt.Errorf("parse extra compile flags: %w", err)
	}
	return &Compiler{cfg: cfg, extraFlags: extra}, nil
}

// Compile invokes the external compiler with output directed into
// workDir. Stdout and stderr are merged; diagnostics pass through
// verbatim. Any failure, including a timeout or an unstartable
// process, is returned as a failed StageResult.
func (c *Compiler) Compile(ctx context.Context, sourceFile, workDir string) result.StageResult {
	argv := []string{
		c.cfg.JavacPath,
		"-d", workDir,
		"-encoding", "UTF-8",
		"-nowarn",
		"-g:none",
	}
	argv = append(argv, c.extraFlags...)
	argv = append(argv, sourceFile)

	capture := newLimitWriter(c.cfg.MaxOutputBytes)
	outcome, startErr := runProcess(ctx, procSpec{
		argv:    argv,
		dir:     workDir,
		timeout: c.cfg.Timeout,
	}, capture, capture, nil)

	if startErr != nil {
		logger.Error(ctx, "compiler process start failed", zap.Error(startErr))
		return result.StageResult{
			Output:  "Compilation error: " + startErr.Error(),
			Success: false,
		}
	}

	output := capture.String()
	if outcome.timedOut {
		return result.StageResult{
			Output: output + fmt.Sprintf(
				"Compilation timed out after %d seconds.\nYour code might be too complex or contain an error.",
				int(c.cfg.Timeout.Seconds())),
			Success:  false,
			TimeMs:   outcome.elapsed.Milliseconds(),
			TimedOut: true,
		}
	}

	success := outcome.exitCode == 0
	if success && strings.TrimSpace(output) == "" {
		output = compileSuccessMessage
	}
	return result.StageResult{
		Output:  output,
		Success: success,
		TimeMs:  outcome.elapsed.Milliseconds(),
	}
}
