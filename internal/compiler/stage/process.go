// Package stage implements the compile and execute subprocess stages
// of the sandbox pipeline.
package stage

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxOutputBytes int64 = 64 * 1024

// limitWriter captures at most max bytes and discards the rest, so a
// pathological output volume cannot exhaust memory.
type limitWriter struct {
	mu        sync.Mutex
	buf       []byte
	max       int64
	truncated bool
}

func newLimitWriter(max int64) *limitWriter {
	if max <= 0 {
		max = defaultMaxOutputBytes
	}
	return &limitWriter{max: max}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	remaining := w.max - int64(len(w.buf))
	if remaining > 0 {
		if int64(len(p)) > remaining {
			w.buf = append(w.buf, p[:remaining]...)
			w.truncated = true
		} else {
			w.buf = append(w.buf, p...)
		}
	} else if len(p) > 0 {
		w.truncated = true
	}
	return len(p), nil
}

func (w *limitWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := string(w.buf)
	if w.truncated {
		s += "\n... output truncated ...\n"
	}
	return s
}

// procSpec describes one subprocess invocation.
type procSpec struct {
	argv    []string
	dir     string
	env     []string // nil inherits the parent environment
	timeout time.Duration
}

// procOutcome is the raw result of one subprocess run.
type procOutcome struct {
	exitCode    int
	timedOut    bool
	elapsed     time.Duration
	maxRSSBytes int64
}

// runProcess starts the subprocess in its own process group, waits up
// to the wall-clock timeout, and SIGKILLs the whole group on expiry.
// onStart, if set, is invoked with the child pid once it is running.
// The returned error is non-nil only when the process could not be
// started.
func runProcess(ctx context.Context, spec procSpec, stdout, stderr io.Writer, onStart func(pid int)) (procOutcome, error) {
	cmd := exec.Command(spec.argv[0], spec.argv[1:]...)
	cmd.Dir = spec.dir
	cmd.Env = spec.env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return procOutcome{exitCode: -1}, err
	}
	pid := cmd.Process.Pid
	if onStart != nil {
		onStart(pid)
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var expiry <-chan time.Time
		if spec.timeout > 0 {
			timer := time.NewTimer(spec.timeout)
			defer timer.Stop()
			expiry = timer.C
		}
		select {
		case <-ctx.Done():
			killProcessGroup(pid)
		case <-expiry:
			timedOut.Store(true)
			killProcessGroup(pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	out := procOutcome{
		exitCode:    exitCodeFromWait(waitErr, cmd),
		timedOut:    timedOut.Load(),
		elapsed:     time.Since(start),
		maxRSSBytes: maxRSSBytes(cmd.ProcessState),
	}
	if out.timedOut && out.exitCode == 0 {
		out.exitCode = -1
	}
	return out, nil
}

func exitCodeFromWait(err error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
