package main

import (
	"errors"

	telepress "github.com/alnah/go-telepress"
	"github.com/alnah/go-telepress/internal/config"
	"github.com/alnah/go-telepress/internal/hints"
	"github.com/alnah/go-telepress/internal/imagehost"
	"github.com/alnah/go-telepress/internal/telegraph"
)

// hintFor returns an actionable hint for err, or "" when no guidance
// applies. The result is appended verbatim to the error line on stderr.
func hintFor(err error) string {
	switch {
	case errors.Is(err, telepress.ErrAuth):
		// Error ignored: a missing home directory just drops the
		// token-file half of the hint.
		path, _ := telegraph.DefaultTokenPath()
		return hints.ForAuth(path)
	case errors.Is(err, telepress.ErrRateLimited):
		return hints.ForRateLimit()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.DefaultPaths())
	case errors.Is(err, imagehost.ErrUnknownHost):
		return hints.ForUnknownHost(imagehost.Types())
	case errors.Is(err, telepress.ErrNoImages):
		return hints.ForEmptyArchive()
	}
	return ""
}
