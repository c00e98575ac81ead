// Package server exposes publishing over HTTP: a health probe, a JSON
// endpoint for raw text, and a multipart endpoint for file uploads.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	telepress "github.com/alnah/go-telepress"
)

// Publisher is the slice of the publishing API the endpoints drive. Close
// runs after the request so per-request publishers release their cache
// handles.
type Publisher interface {
	Publish(ctx context.Context, path, title string) (string, error)
	PublishText(ctx context.Context, content, title string) (string, error)
	Close() error
}

// Factory builds a publisher for one request. token is empty when the
// request carries none; implementations decide whether that falls back to
// a shared account or a persisted token.
type Factory func(token string) (Publisher, error)

type Server struct {
	factory Factory
	logger  *slog.Logger
}

func New(factory Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{factory: factory, logger: logger}
}

// Router assembles the engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.health)
	r.POST("/publish/text", s.publishText)
	r.POST("/publish/file", s.publishFile)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "telepress"})
}

type textPublishReq struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Token   string `json:"token"`
}

func (s *Server) publishText(c *gin.Context) {
	var req textPublishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	pub, err := s.factory(req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer pub.Close()

	url, err := pub.PublishText(c.Request.Context(), req.Content, req.Title)
	if err != nil {
		s.logger.Warn("text publish failed", "err", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "status": "success"})
}

func (s *Server) publishFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	title := c.PostForm("title")
	if title == "" {
		base := filepath.Base(fh.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	tmp, err := saveUpload(fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storing upload failed"})
		return
	}
	defer os.Remove(tmp)

	pub, err := s.factory(c.PostForm("token"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer pub.Close()

	url, err := pub.Publish(c.Request.Context(), tmp, title)
	if err != nil {
		s.logger.Warn("file publish failed", "file", fh.Filename, "err", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "status": "success"})
}

// saveUpload copies the part to a temp file, keeping the original extension
// so format routing still sees it.
func saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "telepress-upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// statusFor maps the publishing error taxonomy onto HTTP statuses: the
// caller's fault is 400, bad credentials 401, upstream throttling 429,
// anything unrecognized 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, telepress.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, telepress.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, telepress.ErrUnsupportedFormat),
		errors.Is(err, telepress.ErrEmptyContent),
		errors.Is(err, telepress.ErrEmptyTitle),
		errors.Is(err, telepress.ErrFileTooLarge),
		errors.Is(err, telepress.ErrNoImages),
		errors.Is(err, telepress.ErrTooManyPages),
		errors.Is(err, telepress.ErrTooManyImages),
		errors.Is(err, telepress.ErrInvalidContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
