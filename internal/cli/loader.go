package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"cuelang.org/go/cue/token"
	"go.uber.org/zap"

	"github.com/roach88/skelc/internal/ast"
	"github.com/roach88/skelc/internal/astdoc"
	"github.com/roach88/skelc/internal/frontend"
	"github.com/roach88/skelc/internal/frontend/cpp"
	"github.com/roach88/skelc/internal/skeleton"
)

// LoadError represents an error that occurred while loading the registry
// or an input.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRegistry loads the skeleton table at path, or the built-in table
// when path is empty. A rejected table yields every validation error.
func LoadRegistry(path string) (*skeleton.Registry, []error) {
	if path == "" {
		return skeleton.Default(), nil
	}

	reg, err := skeleton.LoadFile(path)
	if err == nil {
		return reg, nil
	}

	var tableErr *skeleton.TableError
	if errors.As(err, &tableErr) {
		errs := make([]error, len(tableErr.Errors))
		for i, ve := range tableErr.Errors {
			errs[i] = &LoadError{Code: ve.Code, Message: ve.Field + ": " + ve.Message, Pos: ve.Pos}
		}
		return nil, errs
	}

	var compileErr *skeleton.CompileError
	if errors.As(err, &compileErr) {
		return nil, []error{&LoadError{
			Code:    ErrCodeBuildFailed,
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry not found: %s", path)}}
	}
	return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
}

// LoadInput reads one translation unit, classifying failures by code.
func LoadInput(ctx context.Context, path string, skeletons *skeleton.Registry, logger *zap.Logger) (*ast.Unit, error) {
	unit, err := frontend.Load(ctx, path, skeletons, logger)
	if err == nil {
		return unit, nil
	}

	var (
		unsupported *frontend.UnsupportedError
		syntaxErr   *cpp.SyntaxError
		decodeErr   *astdoc.DecodeError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case errors.Is(err, fs.ErrNotExist):
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input not found: %s", path)}
	case errors.As(err, &unsupported):
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: err.Error()}
	case errors.As(err, &syntaxErr), errors.As(err, &decodeErr):
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
	default:
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", path, err)}
	}
}

// Error code constants - unified across all CLI commands. Analysis codes
// (E2xx, W3xx) and registry validation codes (E4xx) are passed through
// unchanged.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No supported inputs or scenarios found
	ErrCodeLoadFailed  = "E004" // Input or registry could not be parsed
	ErrCodeNotFound    = "E005" // Path or stored run not found
	ErrCodeBuildFailed = "E006" // Registry failed to compile against its schema
	ErrCodeWriteFailed = "E007" // Manifest delivery failed
	ErrCodeStoreFailed = "E008" // Manifest store could not be opened or read
	ErrCodeBadFlag     = "E009" // Invalid flag value
	ErrCodeUnsupported = "E010" // Input type not handled by any front-end
	ErrCodeAmbiguous   = "E011" // Run reference matches several runs
	ErrCodeMismatch    = "E012" // Stored run no longer matches its fingerprint
)

// errorCode extracts the E-code of err, falling back to fallback.
func errorCode(err error, fallback string) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return fallback
}

// errorMessage is the message of err without its code prefix.
func errorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return err.Error()
}
