package main

import (
	"context"
	"io"
	"os"
	"time"

	telepress "github.com/alnah/go-telepress"
)

// Publisher is the slice of the library the command drives.
type Publisher interface {
	Publish(ctx context.Context, path, title string) (string, error)
	Close() error
}

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	NewPublisher func(opts ...telepress.Option) Publisher
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewPublisher: func(opts ...telepress.Option) Publisher {
			return telepress.New(opts...)
		},
	}
}
