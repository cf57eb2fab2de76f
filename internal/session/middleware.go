package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKey = "session"

type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Middleware attaches the visitor session to the request and persists it
// after the handler ran, but only if the handler changed it.
func Middleware(store Store, opts CookieOptions, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := load(c, store, opts.Name, log)
		if cookie, err := c.Cookie(opts.Name); err != nil || cookie != sess.ID {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.Name, sess.ID, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		}
		c.Set(contextKey, sess)

		c.Next()

		if !sess.Modified() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := store.Save(ctx, sess); err != nil {
			log.Error("session save failed", "err", err)
		}
	}
}

func load(c *gin.Context, store Store, cookieName string, log *slog.Logger) *Session {
	id, err := c.Cookie(cookieName)
	if err != nil || id == "" {
		return New()
	}
	sess, err := store.Load(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("session load failed", "err", err)
		}
		return New()
	}
	return sess
}

// From returns the session attached by Middleware. Handlers mounted without
// the middleware get a throwaway session.
func From(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if sess, ok := v.(*Session); ok {
			return sess
		}
	}
	sess := New()
	c.Set(contextKey, sess)
	return sess
}
