package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"solarintake/internal/intake"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextKeyDraft contextKey = "draft"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireDraft resolves the draft named by the session cookie and puts it on
// the request context.
func (s *Service) RequireDraft(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		draft, err := s.draftFromRequest(r)
		if err != nil {
			s.logger.WithError(err).Debug("request without a usable draft")
			s.writeError(w, intake.ErrDraftNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyDraft, draft)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) draftFromRequest(r *http.Request) (*intake.Form, error) {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return nil, err
	}

	var draftID string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &draftID); err != nil {
		return nil, err
	}

	return s.drafts.Get(draftID)
}

func draftFromContext(ctx context.Context) *intake.Form {
	draft, _ := ctx.Value(contextKeyDraft).(*intake.Form)
	return draft
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			// 308 keeps the method and body of form posts
			http.Redirect(w, r, newURL.String(), http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
