package main

import (
	"errors"
	"os"

	telepress "github.com/alnah/go-telepress"
	"github.com/alnah/go-telepress/internal/archive"
	"github.com/alnah/go-telepress/internal/config"
	"github.com/alnah/go-telepress/internal/imagehost"
)

// Exit codes for the telepress CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Page published
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input validation
	ExitIO      = 3 // File not found, permission denied
	ExitRemote  = 4 // Page service or image host failures, bad credentials
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Remote service errors (exit 4)
	if errors.Is(err, telepress.ErrAuth) ||
		errors.Is(err, telepress.ErrRateLimited) ||
		errors.Is(err, telepress.ErrRemoteService) ||
		errors.Is(err, telepress.ErrUpload) {
		return ExitRemote
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, imagehost.ErrUnknownHost) ||
		errors.Is(err, archive.ErrInvalidArchive) ||
		errors.Is(err, telepress.ErrUnsupportedFormat) ||
		errors.Is(err, telepress.ErrEmptyContent) ||
		errors.Is(err, telepress.ErrEmptyTitle) ||
		errors.Is(err, telepress.ErrFileTooLarge) ||
		errors.Is(err, telepress.ErrNoImages) ||
		errors.Is(err, telepress.ErrTooManyPages) ||
		errors.Is(err, telepress.ErrTooManyImages) ||
		errors.Is(err, telepress.ErrInvalidContent) {
		return ExitUsage
	}

	return ExitGeneral
}
