// Package controller exposes the compile-and-run pipeline over HTTP.
package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"javox/internal/common/middleware"
	"javox/internal/compiler/pipeline"
	"javox/internal/compiler/result"
	"javox/pkg/utils/response"
)

// CodeSnippet is the request body of one submission. Only sourceCode
// is interpreted; the rest is echoed back for the frontend.
type CodeSnippet struct {
	Title      string `json:"title"`
	SourceCode string `json:"sourceCode"`
	Language   string `json:"language"`
}

// SnippetResult is the response body: the submitted metadata plus the
// submission outcome.
type SnippetResult struct {
	Title    string `json:"title,omitempty"`
	Language string `json:"language"`
	result.SubmissionResult
}

// Runner is the single operation the controller needs from the core.
type Runner interface {
	Run(ctx context.Context, sub pipeline.Submission) result.SubmissionResult
}

// CompilerController handles submission requests.
type CompilerController struct {
	runner Runner
}

// NewCompilerController creates a new controller.
func NewCompilerController(runner Runner) *CompilerController {
	return &CompilerController{runner: runner}
}

// CompileAndRun accepts a snippet, runs the pipeline synchronously and
// returns the structured result. The pipeline never returns an error;
// every failure mode is a field of the result.
func (h *CompilerController) CompileAndRun(c *gin.Context) {
	var snippet CodeSnippet
	if err := c.ShouldBindJSON(&snippet); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res := h.runner.Run(c.Request.Context(), pipeline.Submission{SourceText: snippet.SourceCode})

	language := snippet.Language
	if language == "" {
		language = "java"
	}
	response.Success(c, SnippetResult{
		Title:            snippet.Title,
		Language:         language,
		SubmissionResult: res,
	})
}

// Health reports service liveness.
func (h *CompilerController) Health(c *gin.Context) {
	c.String(http.StatusOK, "Java compiler service is running")
}

// RouterConfig controls HTTP router construction.
type RouterConfig struct {
	Mode string // gin mode: debug, release, test
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg RouterConfig, ctrl *CompilerController) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceContextMiddleware())

	r.GET("/health", ctrl.Health)
	api := r.Group("/api")
	{
		api.POST("/compiler", ctrl.CompileAndRun)
	}
	return r
}
