// Package result defines the immutable outcomes produced by the
// compile and execute stages and the aggregated submission result.
package result

// StageResult captures the outcome of one subprocess stage.
type StageResult struct {
	Output          string
	Success         bool
	TimeMs          int64
	PeakMemoryBytes int64 // execution stage only
	TimedOut        bool
}

// SubmissionResult is the externally visible outcome of one submission.
// Field names match the wire shape consumed by the playground frontend.
type SubmissionResult struct {
	CompilationOutput  string `json:"compilationOutput"`
	CompilationSuccess bool   `json:"compilationSuccess"`
	CompilationTimeMs  int64  `json:"compilationTimeMs"`
	ExecutionOutput    string `json:"executionOutput"`
	ExecutionSuccess   bool   `json:"executionSuccess"`
	ExecutionTimeMs    int64  `json:"executionTimeMs"`
	PeakMemoryBytes    int64  `json:"peakMemoryBytes"`
	CacheHit           bool   `json:"cacheHit"`
}
