// Package server exposes the chat pipeline and its read side over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zulandar/galley/internal/chat"
	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/quota"
	"gorm.io/gorm"
)

// Default identity headers set by the upstream gateway.
const (
	DefaultUserHeader  = "X-User-ID"
	DefaultEmailHeader = "X-User-Email"
)

// Sender runs a chat turn.
type Sender interface {
	Send(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// Deps are the collaborators the routes call into.
type Deps struct {
	Chat   Sender
	Store  *conversation.Store
	Quota  *quota.Gate
	Log    *genlog.Log
	DB     *gorm.DB // dashboard queries
	Logger logrus.FieldLogger

	UserHeader  string
	EmailHeader string
	// Now overrides the clock for dashboard views, for tests.
	Now func() time.Time
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Deps
	Port int
	Out  io.Writer
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Chat == nil || d.Store == nil || d.Quota == nil || d.Log == nil || d.DB == nil {
		return nil, fmt.Errorf("server: chat, store, quota, log and db are required")
	}
	if d.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Logger = l
	}
	if d.UserHeader == "" {
		d.UserHeader = DefaultUserHeader
	}
	if d.EmailHeader == "" {
		d.EmailHeader = DefaultEmailHeader
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger))
	registerRoutes(router, &d)
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts.Deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Galley API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if uid, ok := c.Get(ctxUserID); ok {
			entry = entry.WithField("user_id", uid)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request")
		}
	}
}
