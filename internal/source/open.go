// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mia-platform/etl/internal/info"
	"github.com/mia-platform/etl/internal/logger"
)

const (
	// DefaultTimeout bounds the download of a remote file.
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrUnexpectedStatus is returned when a remote file answers with a non 2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Location describes a local file or an http(s) resource.
type Location struct {
	// Path is a file path or an http:// or https:// URL.
	Path string `json:"path" yaml:"path" validate:"required"`
	// UserAgent overrides the User-Agent sent for remote files.
	UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	// Timeout bounds the download of a remote file, DefaultTimeout when zero.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// IsRemote reports whether the location points to an http(s) resource.
func (l Location) IsRemote() bool {
	return strings.HasPrefix(l.Path, "http://") || strings.HasPrefix(l.Path, "https://")
}

// Open returns a reader on the raw location content. The caller must close the
// returned reader.
func Open(ctx context.Context, location Location) (io.ReadCloser, error) {
	if location.IsRemote() {
		return fetch(ctx, location)
	}

	file, err := os.Open(location.Path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// OpenText is like Open but decodes the content as UTF-8 text, removing a
// leading byte order mark.
func OpenText(ctx context.Context, location Location) (io.ReadCloser, error) {
	body, err := Open(ctx, location)
	if err != nil {
		return nil, err
	}

	return &utf8ReadCloser{
		Reader: transform.NewReader(body, unicode.BOMOverride(unicode.UTF8.NewDecoder())),
		closer: body,
	}, nil
}

func fetch(ctx context.Context, location Location) (io.ReadCloser, error) {
	log := logger.FromContext(ctx).WithName("etl:source")

	timeout := location.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := location.UserAgent
	if userAgent == "" {
		userAgent = info.UserAgent()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location.Path, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	request.Header.Set("User-Agent", userAgent)

	log.Debug("fetching remote file", "url", location.Path)
	resp, err := http.DefaultClient.Do(request)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %d fetching %s", ErrUnexpectedStatus, resp.StatusCode, location.Path)
	}

	log.Trace("remote file reachable", "url", location.Path, "contentLength", resp.ContentLength)
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

type utf8ReadCloser struct {
	io.Reader
	closer io.Closer
}

func (u *utf8ReadCloser) Close() error {
	return u.closer.Close()
}
