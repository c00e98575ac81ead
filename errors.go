package telepress

import (
	"errors"

	"github.com/alnah/go-telepress/internal/imageutil"
	"github.com/alnah/go-telepress/internal/paginate"
	"github.com/alnah/go-telepress/internal/telegraph"
	"github.com/alnah/go-telepress/internal/upload"
)

// Sentinel errors for publish operations.
var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrFileTooLarge      = errors.New("input file exceeds the maximum size")
	ErrNoImages          = errors.New("no images to publish")
)

// Pipeline errors re-exported so callers can match every failure against
// this package alone with errors.Is.
var (
	// Pagination limits.
	ErrTooManyPages  = paginate.ErrTooManyPages
	ErrTooManyImages = paginate.ErrTooManyImages

	// Image pipeline.
	ErrUpload      = upload.ErrUpload
	ErrCompression = imageutil.ErrCompression

	// Remote page service.
	ErrAuth           = telegraph.ErrAuth
	ErrRateLimited    = telegraph.ErrRateLimited
	ErrInvalidContent = telegraph.ErrInvalidContent
	ErrRemoteService  = telegraph.ErrRemote
)
