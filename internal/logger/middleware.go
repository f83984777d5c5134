// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	forwardedHostHeaderKey = "x-forwarded-host"
	forwardedForHeaderKey  = "x-forwarded-for"
	requestIDHeaderName    = "x-request-id"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

// httpEntry is the shape of the "http" field of the request logs.
type httpEntry struct {
	Request  *requestEntry  `json:"request,omitempty"`
	Response *responseEntry `json:"response,omitempty"`
}

type requestEntry struct {
	Method    string `json:"method,omitempty"`
	UserAgent struct {
		Original string `json:"original,omitempty"`
	} `json:"userAgent"`
}

type responseEntry struct {
	StatusCode int `json:"statusCode,omitempty"`
	Body       struct {
		Bytes int `json:"bytes,omitempty"`
	} `json:"body"`
}

type hostEntry struct {
	Hostname      string `json:"hostname,omitempty"`
	ForwardedHost string `json:"forwardedHost,omitempty"`
	IP            string `json:"ip,omitempty"`
}

type urlEntry struct {
	Path string `json:"path,omitempty"`
}

// requestLog collects what the middleware needs from a fiber request.
type requestLog struct {
	c          *fiber.Ctx
	handlerErr error
}

func (r *requestLog) header(key string) string {
	return r.c.Get(key, "")
}

func (r *requestLog) uri() string {
	return string(r.c.Request().URI().RequestURI())
}

func (r *requestLog) requestID() string {
	if requestID := r.header(requestIDHeaderName); requestID != "" {
		return requestID
	}

	// e.g. 16c9c1f2-c001-40d3-bbfe-48857367e7b5
	requestID, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Errorf("error generating request id: %w", err))
	}
	return requestID.String()
}

func (r *requestLog) fiberError() *fiber.Error {
	if fiberErr, ok := r.handlerErr.(*fiber.Error); ok {
		return fiberErr
	}
	return nil
}

func (r *requestLog) statusCode() int {
	if fiberErr := r.fiberError(); fiberErr != nil {
		return fiberErr.Code
	}
	return r.c.Response().StatusCode()
}

func (r *requestLog) bodySize() int {
	if fiberErr := r.fiberError(); fiberErr != nil {
		return len(fiberErr.Error())
	}

	if content := r.c.GetRespHeader("Content-Length"); content != "" {
		if length, err := strconv.Atoi(content); err == nil {
			return length
		}
	}
	return len(r.c.Response().Body())
}

func (r *requestLog) request() *requestEntry {
	entry := &requestEntry{Method: r.c.Method()}
	entry.UserAgent.Original = r.header("user-agent")
	return entry
}

func (r *requestLog) host() hostEntry {
	return hostEntry{
		ForwardedHost: r.header(forwardedHostHeaderKey),
		Hostname:      strings.Split(string(r.c.Request().Host()), ":")[0],
		IP:            r.header(forwardedForHeaderKey),
	}
}

func (r *requestLog) logIncoming(log Logger) {
	log.WithName("incoming_request").Trace(IncomingRequestMessage,
		"http", httpEntry{Request: r.request()},
		"url", urlEntry{Path: r.uri()},
		"host", r.host(),
	)
}

func (r *requestLog) logCompleted(log Logger, start time.Time) {
	response := &responseEntry{StatusCode: r.statusCode()}
	response.Body.Bytes = r.bodySize()

	log.WithName("request_completed").Info(RequestCompletedMessage,
		"http", httpEntry{Request: r.request(), Response: response},
		"url", urlEntry{Path: r.uri()},
		"host", r.host(),
		"responseTime", float64(time.Since(start).Milliseconds()),
	)
}

// RequestMiddlewareLogger is a fiber middleware logging every request not matching
// one of the excluded path prefixes. The request scoped logger is stored in the
// user context of the request so handlers can retrieve it with FromContext.
func RequestMiddlewareLogger(log Logger, excludedPrefixes []string) func(*fiber.Ctx) error {
	return func(fiberCtx *fiber.Ctx) error {
		entry := &requestLog{c: fiberCtx}

		for _, prefix := range excludedPrefixes {
			if strings.HasPrefix(entry.uri(), prefix) {
				return fiberCtx.Next()
			}
		}

		start := time.Now()
		requestLogger := log.WithName("request").With("requestId", entry.requestID())
		fiberCtx.SetUserContext(WithContext(fiberCtx.UserContext(), requestLogger))

		entry.logIncoming(requestLogger)
		err := fiberCtx.Next()
		entry.handlerErr = err
		entry.logCompleted(requestLogger, start)

		return err
	}
}
