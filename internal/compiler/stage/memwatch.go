package stage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// peakMemoryFile is the well-known workspace file the peak reading
	// is persisted to and read back from.
	peakMemoryFile = "peakmem"

	// placeholderPeakBytes is substituted when no sane reading was
	// obtained. The estimate is best effort, never exact.
	placeholderPeakBytes int64 = 150_000

	maxSanePeakBytes int64 = 8 << 30

	defaultSampleInterval = 20 * time.Millisecond
)

// memWatch periodically samples a process's resident set size and
// keeps the maximum observed reading. Sampling is pure /proc reads, so
// it does not perturb the target's timing.
type memWatch struct {
	peak    atomic.Int64
	done    chan struct{}
	stopped chan struct{}
}

// watchProcessMemory starts sampling pid at the given interval.
func watchProcessMemory(pid int, interval time.Duration) *memWatch {
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	w := &memWatch{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(w.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.done:
				return
			case <-ticker.C:
				if rss := sampleRSSBytes(pid); rss > w.peak.Load() {
					w.peak.Store(rss)
				}
			}
		}
	}()
	return w
}

// Stop terminates sampling deterministically and returns the peak
// observed so far.
func (w *memWatch) Stop() int64 {
	close(w.done)
	<-w.stopped
	return w.peak.Load()
}

// sampleRSSBytes reads VmRSS from /proc/<pid>/status. Returns 0 when
// the process is gone or the file is unavailable.
func sampleRSSBytes(pid int) int64 {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

// persistPeakMemory writes the reading to the well-known workspace
// file. Write failures are ignored; read-back falls back to the
// placeholder.
func persistPeakMemory(workDir string, peak int64) {
	_ = os.WriteFile(filepath.Join(workDir, peakMemoryFile), []byte(strconv.FormatInt(peak, 10)), 0600)
}

// readPeakMemory reads the persisted reading back, substituting the
// placeholder when the file is absent, unparsable, or out of range.
func readPeakMemory(workDir string) int64 {
	data, err := os.ReadFile(filepath.Join(workDir, peakMemoryFile))
	if err != nil {
		return placeholderPeakBytes
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || v <= 0 || v > maxSanePeakBytes {
		return placeholderPeakBytes
	}
	return v
}
