package stage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"javox/internal/compiler/result"
	"javox/pkg/utils/logger"
)

const (
	defaultExecuteTimeout = 10 * time.Second
	defaultHeapMB         = 128
	defaultStackKB        = 1024
	defaultMetaspaceMB    = 64

	executeSuccessMessage = "Program executed successfully with no output."
)

// strippedEnvVars can inject arbitrary JVM flags into the child and
// would defeat the resource ceilings below.
var strippedEnvVars = []string{
	"JAVA_TOOL_OPTIONS",
	"_JAVA_OPTIONS",
	"JDK_JAVA_OPTIONS",
}

// ExecutorConfig controls the java invocation and its resource ceilings.
type ExecutorConfig struct {
	JavaPath       string
	HeapMB         int
	StackKB        int
	MetaspaceMB    int
	ExtraFlags     string
	Timeout        time.Duration
	MaxOutputBytes int64
	SampleInterval time.Duration
}

// Executor runs a compiled class inside a workspace under hard
// resource limits, and estimates its peak memory.
type Executor struct {
	cfg        ExecutorConfig
	extraFlags []string
}

// NewExecutor creates an execute stage with defaults for zero values.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.JavaPath == "" {
		cfg.JavaPath = "java"
	}
	if cfg.HeapMB <= 0 {
		cfg.HeapMB = defaultHeapMB
	}
	if cfg.StackKB <= 0 {
		cfg.StackKB = defaultStackKB
	}
	if cfg.MetaspaceMB <= 0 {
		cfg.MetaspaceMB = defaultMetaspaceMB
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExecuteTimeout
	}
	extra, err := shlex.Split(cfg.ExtraFlags)
	if err != nil {
		return nil, fmt.Errorf("parse extra runtime flags: %w", err)
	}
	return &Executor{cfg: cfg, extraFlags: extra}, nil
}

// Execute runs className with the classpath restricted to workDir. The
// inherited environment is sanitized so the ceilings cannot be
// overridden from outside. Peak memory is sampled from /proc while the
// child runs, cross-checked against its rusage high-water mark, and
// persisted to the workspace before being read back.
func (e *Executor) Execute(ctx context.Context, className, workDir string) result.StageResult {
	argv := []string{
		e.cfg.JavaPath,
		"-Xms8m",
		fmt.Sprintf("-Xmx%dm", e.cfg.HeapMB),
		fmt.Sprintf("-Xss%dk", e.cfg.StackKB),
		"-XX:+UseSerialGC",
		fmt.Sprintf("-XX:MaxMetaspaceSize=%dm", e.cfg.MetaspaceMB),
		"-XX:MetaspaceSize=8m",
		"-XX:TieredStopAtLevel=1",
		"-XX:+DisableAttachMechanism",
		"-Djava.awt.headless=true",
	}
	argv = append(argv, e.extraFlags...)
	argv = append(argv, "-cp", workDir, className)

	stdout := newLimitWriter(e.cfg.MaxOutputBytes)
	stderr := newLimitWriter(e.cfg.MaxOutputBytes)

	var watch *memWatch
	outcome, startErr := runProcess(ctx, procSpec{
		argv:    argv,
		dir:     workDir,
		env:     sanitizedEnv(),
		timeout: e.cfg.Timeout,
	}, stdout, stderr, func(pid int) {
		watch = watchProcessMemory(pid, e.cfg.SampleInterval)
	})

	if startErr != nil {
		logger.Error(ctx, "runtime process start failed", zap.Error(startErr))
		return result.StageResult{
			Output:  "Execution error: " + startErr.Error(),
			Success: false,
		}
	}

	sampledPeak := watch.Stop()
	if outcome.maxRSSBytes > sampledPeak {
		sampledPeak = outcome.maxRSSBytes
	}
	persistPeakMemory(workDir, sampledPeak)
	peak := readPeakMemory(workDir)

	if outcome.timedOut {
		return result.StageResult{
			Output: filterRuntimeNoise(stdout.String()) + fmt.Sprintf(
				"Execution timed out after %d seconds.\nCheck for infinite loops or optimize your code.",
				int(e.cfg.Timeout.Seconds())),
			Success:         false,
			TimeMs:          outcome.elapsed.Milliseconds(),
			PeakMemoryBytes: peak,
			TimedOut:        true,
		}
	}

	success := outcome.exitCode == 0
	output := composeOutput(stdout.String(), stderr.String(), success)
	return result.StageResult{
		Output:          output,
		Success:         success,
		TimeMs:          outcome.elapsed.Milliseconds(),
		PeakMemoryBytes: peak,
	}
}

// sanitizedEnv returns the parent environment minus variables that the
// JVM reads for extra flags.
func sanitizedEnv() []string {
	env := os.Environ()
	out := env[:0]
	for _, kv := range env {
		name, _, _ := strings.Cut(kv, "=")
		if stripped(name) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func stripped(name string) bool {
	for _, v := range strippedEnvVars {
		if name == v {
			return true
		}
	}
	return false
}

// filterRuntimeNoise drops JVM banner lines so they are not mistaken
// for program output.
func filterRuntimeNoise(s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "Picked up ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// composeOutput keeps stdout and stderr clearly separated on failure
// so legitimate output is not confused with error noise.
func composeOutput(stdout, stderr string, success bool) string {
	stdout = strings.TrimSpace(filterRuntimeNoise(stdout))
	stderr = strings.TrimSpace(filterRuntimeNoise(stderr))

	if success {
		combined := stdout
		if stderr != "" {
			if combined != "" {
				combined += "\n"
			}
			combined += stderr
		}
		if combined == "" {
			return executeSuccessMessage
		}
		return combined
	}

	var b strings.Builder
	b.WriteString(stdout)
	if stderr != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[stderr]\n")
		b.WriteString(stderr)
	}
	return b.String()
}
