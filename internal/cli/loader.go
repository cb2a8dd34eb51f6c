package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tesseract/internal/compiler"
	"github.com/roach88/tesseract/internal/schema"
)

// Error code constants - unified across all CLI commands.
// Resolution failures are reported with the resolver's own codes
// (NOT_AUTHORIZED, INVALID_ENTITY_NAME, ...).
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load or compile failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeInvalidInput  = "E008" // Request or scenario file unreadable
	ErrCodeDatabase      = "E009" // Resolution log unavailable
	ErrCodeSchemaInvalid = "E010" // Schema failed validation
)

// LoadError represents an error that occurred while loading a schema.
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

// LoadedSchema is a compiled definition with its source facts.
type LoadedSchema struct {
	Dir        string
	Definition *compiler.Definition
	Hash       string
	FileCount  int
}

// LoadDefinition compiles the CUE files of dir without validating them.
// Every failure is a *LoadError.
func LoadDefinition(dir string) (*LoadedSchema, error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil || len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	value, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}
	def, err := compiler.CompileDefinition(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	hash, err := compiler.SourceHash(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}

	return &LoadedSchema{Dir: dir, Definition: def, Hash: hash, FileCount: len(files)}, nil
}

// LoadSchema compiles, validates and links the schema of dir.
// Validation failures are returned as one joined error with code E010.
func LoadSchema(dir string) (*schema.Schema, *LoadedSchema, error) {
	loaded, err := LoadDefinition(dir)
	if err != nil {
		return nil, nil, err
	}
	if verrs := compiler.Validate(loaded.Definition); len(verrs) > 0 {
		return nil, loaded, &LoadError{
			Code:    ErrCodeSchemaInvalid,
			Message: compiler.JoinValidationErrors(verrs).Error(),
		}
	}
	s, err := loaded.Definition.Build()
	if err != nil {
		return nil, loaded, &LoadError{Code: ErrCodeSchemaInvalid, Message: err.Error()}
	}
	return s, loaded, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// loadErrorCode returns the code of a *LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
