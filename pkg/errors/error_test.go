package errors_test

import (
	stderrors "errors"
	"testing"

	"javox/pkg/errors"
)

func TestNewUsesDefaultMessage(t *testing.T) {
	err := errors.New(errors.EmptySource)
	if err.Error() != "Source code cannot be empty" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, errors.EmptySource) {
		t.Fatalf("expected code match")
	}
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.Wrapf(cause, errors.WorkspaceError, "create workspace failed")

	if errors.GetCode(err) != errors.WorkspaceError {
		t.Fatalf("unexpected code %d", errors.GetCode(err))
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
}

func TestGetErrorWrapsForeignErrors(t *testing.T) {
	err := errors.GetError(stderrors.New("boom"))
	if err.Code != errors.InternalServerError {
		t.Fatalf("expected InternalServerError, got %d", err.Code)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[errors.ErrorCode]int{
		errors.Success:             200,
		errors.EmptySource:         400,
		errors.NoClassFound:        400,
		errors.SourceTooLarge:      400,
		errors.InvalidParams:       400,
		errors.NotFound:            404,
		errors.TooManyRequests:     429,
		errors.CompileTimeout:      500,
		errors.InternalServerError: 500,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Fatalf("code %d: expected %d, got %d", code, want, got)
		}
	}
}

func TestIsInputError(t *testing.T) {
	for _, code := range []errors.ErrorCode{errors.EmptySource, errors.SourceTooLarge, errors.NoClassFound} {
		if !code.IsInputError() {
			t.Fatalf("expected %d to be an input error", code)
		}
	}
	if errors.CompileFailed.IsInputError() || errors.WorkspaceError.IsInputError() {
		t.Fatalf("non-input codes misclassified")
	}
}
