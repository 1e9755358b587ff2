// Package pipeline orchestrates the per-submission lifecycle:
// workspace creation, cache lookup or compilation, conditional
// execution, metric collection, and unconditional cleanup.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"javox/internal/compiler/analyzer"
	"javox/internal/compiler/cache"
	"javox/internal/compiler/result"
	"javox/internal/compiler/workspace"
	appErr "javox/pkg/errors"
	"javox/pkg/utils/contextkey"
	"javox/pkg/utils/logger"
)

const (
	cachedSuccessMessage    = "Compilation successful (cached)"
	skippedExecutionMessage = "Compilation failed, execution skipped."
)

// CompileStage compiles a source file inside a workspace.
type CompileStage interface {
	Compile(ctx context.Context, sourceFile, workDir string) result.StageResult
}

// ExecuteStage runs a compiled class inside a workspace.
type ExecuteStage interface {
	Execute(ctx context.Context, className, workDir string) result.StageResult
}

// WorkspaceManager creates and destroys isolated submission directories.
type WorkspaceManager interface {
	Create(ctx context.Context) (*workspace.Workspace, error)
	Destroy(ctx context.Context, ws *workspace.Workspace)
}

// Submission is one immutable unit of work.
type Submission struct {
	SourceText string
}

// Config assembles the pipeline's collaborators.
type Config struct {
	Compiler    CompileStage
	Executor    ExecuteStage
	Workspaces  WorkspaceManager
	Cache       cache.Cache
	Concurrency int // max concurrent submissions; <=0 selects NumCPU
}

// Pipeline sequences the stages for each submission and maps every
// failure mode to a structured result. No error escapes Run.
type Pipeline struct {
	compiler   CompileStage
	executor   ExecuteStage
	workspaces WorkspaceManager
	cache      cache.Cache
	sem        chan struct{}
}

// New creates a pipeline. Each submission spawns up to two heavyweight
// subprocesses, so concurrency is capped by a semaphore.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Compiler == nil || cfg.Executor == nil || cfg.Workspaces == nil || cfg.Cache == nil {
		return nil, appErr.New(appErr.InternalServerError).WithMessage("pipeline dependencies are not initialized")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pipeline{
		compiler:   cfg.Compiler,
		executor:   cfg.Executor,
		workspaces: cfg.Workspaces,
		cache:      cfg.Cache,
		sem:        make(chan struct{}, concurrency),
	}, nil
}

// Run compiles and conditionally executes one submission. It always
// returns a well-formed SubmissionResult, whatever went wrong.
func (p *Pipeline) Run(ctx context.Context, sub Submission) result.SubmissionResult {
	ctx = context.WithValue(ctx, contextkey.SubmissionID, uuid.NewString())

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return serverErrorResult("Server busy: " + ctx.Err().Error())
	}

	return p.run(ctx, sub)
}

func (p *Pipeline) run(ctx context.Context, sub Submission) (res result.SubmissionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in submission pipeline", zap.Any("panic", r))
			res = serverErrorResult("Server error: internal failure")
		}
	}()

	// Fail fast before any filesystem or subprocess work.
	if err := analyzer.Validate(sub.SourceText); err != nil {
		return result.SubmissionResult{
			CompilationOutput: appErr.GetError(err).Error(),
			ExecutionOutput:   skippedExecutionMessage,
		}
	}
	className, _ := analyzer.ExtractClassName(sub.SourceText)
	fingerprint := analyzer.Fingerprint(sub.SourceText)

	ws, err := p.workspaces.Create(ctx)
	if err != nil {
		logger.Error(ctx, "workspace creation failed", zap.Error(err))
		return serverErrorResult("Server error: " + appErr.GetError(err).Error())
	}
	defer p.workspaces.Destroy(ctx, ws)

	sourceName := className + ".java"
	if err := ws.WriteText(sourceName, sub.SourceText); err != nil {
		logger.Error(ctx, "write source failed", zap.Error(err))
		return serverErrorResult("Server error: " + appErr.GetError(err).Error())
	}

	compileStart := time.Now()
	if artifact, ok := p.cache.Get(ctx, fingerprint); ok {
		if err := ws.WriteBytes(artifact.ClassName+".class", artifact.Bytecode); err != nil {
			logger.Error(ctx, "restore cached artifact failed", zap.Error(err))
			return serverErrorResult("Server error: " + appErr.GetError(err).Error())
		}
		res.CompilationOutput = cachedSuccessMessage
		res.CompilationSuccess = true
		res.CompilationTimeMs = time.Since(compileStart).Milliseconds()
		res.CacheHit = true
		logger.Debug(ctx, "artifact cache hit", zap.String("fingerprint", fingerprint))
	} else {
		sourcePath, err := ws.Join(sourceName)
		if err != nil {
			return serverErrorResult("Server error: " + appErr.GetError(err).Error())
		}
		compileRes := p.compiler.Compile(ctx, sourcePath, ws.Path())
		res.CompilationOutput = compileRes.Output
		res.CompilationSuccess = compileRes.Success
		res.CompilationTimeMs = compileRes.TimeMs

		if compileRes.Success {
			if bytecode, err := ws.ReadBytes(className + ".class"); err == nil {
				p.cache.Put(ctx, fingerprint, cache.Artifact{ClassName: className, Bytecode: bytecode})
			} else {
				logger.Warn(ctx, "read compiled artifact failed", zap.Error(err))
			}
		}
	}

	if !res.CompilationSuccess {
		res.ExecutionOutput = skippedExecutionMessage
		res.ExecutionSuccess = false
		return res
	}

	if !analyzer.HasMainMethod(sub.SourceText) {
		res.ExecutionOutput = "Class '" + className + "' compiled successfully, but no main method found.\n" +
			"To run this code, add: public static void main(String[] args) {...}"
		res.ExecutionSuccess = true
		return res
	}

	execRes := p.executor.Execute(ctx, className, ws.Path())
	res.ExecutionOutput = execRes.Output
	res.ExecutionSuccess = execRes.Success
	res.ExecutionTimeMs = execRes.TimeMs
	res.PeakMemoryBytes = execRes.PeakMemoryBytes

	logger.Info(ctx, "submission finished",
		zap.Bool("compiled", res.CompilationSuccess),
		zap.Bool("executed", res.ExecutionSuccess),
		zap.Bool("cache_hit", res.CacheHit),
		zap.Int64("compile_ms", res.CompilationTimeMs),
		zap.Int64("exec_ms", res.ExecutionTimeMs),
	)
	return res
}

func serverErrorResult(msg string) result.SubmissionResult {
	return result.SubmissionResult{
		CompilationOutput: msg,
		ExecutionOutput:   "Execution skipped.",
	}
}
