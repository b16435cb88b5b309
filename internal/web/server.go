// Package web serves the retrieval map: login gate, CSV upload, the rendered
// map and list, a JSON API and QR codes for route links.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/yusukeinoue-jpg/lime-tool/internal/auth"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
)

//go:embed templates/*.html
var templateFS embed.FS

// MaxUploadBytes bounds an uploaded snapshot
const MaxUploadBytes = 32 << 20

// Options wires a Server
type Options struct {
	Sessions *auth.Manager
	Pipeline *retrieval.Service
	Builder  *mapview.Builder
	Language language.Tag
	// PortCount reports the size of the stored reference table for /healthz
	PortCount func(ctx context.Context) (int, error)
}

// Server holds the HTTP handlers
type Server struct {
	sessions  *auth.Manager
	pipeline  *retrieval.Service
	builder   *mapview.Builder
	language  language.Tag
	portCount func(ctx context.Context) (int, error)
	templates *template.Template
}

// NewServer parses the embedded templates
func NewServer(opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"toJSON": func(v interface{}) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Server{
		sessions:  opts.Sessions,
		pipeline:  opts.Pipeline,
		builder:   opts.Builder,
		language:  opts.Language,
		portCount: opts.PortCount,
		templates: tmpl,
	}, nil
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(AddCorrelationID, Logging, Recovery)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleIndex)
			r.Post("/upload", s.handleUpload)
			r.Get("/qr", s.handleQR)
		})

		r.With(s.requireAuthAPI).Post("/api/retrievals", s.handleAPIRetrievals)
	})

	return r
}

func (s *Server) withSession(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Load(w, r)
		if err != nil {
			log.WithError(err).WithField("correlation_id", CorrelationID(r.Context())).Error("Loading session")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	}
	return http.HandlerFunc(fn)
}

func sessionFrom(r *http.Request) *auth.Session {
	sess, _ := r.Context().Value(sessionKey).(*auth.Session)
	return sess
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r); sess == nil || !sess.Authenticated {
			http.Redirect(w, r, withLang("/login", r), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (s *Server) requireAuthAPI(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r); sess == nil || !sess.Authenticated {
			writeJSONError(w, r, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// labels picks the display language for this request
func (s *Server) labels(r *http.Request) mapview.Labels {
	return mapview.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), s.language)
}

// withLang keeps an explicit ?lang= across redirects
func withLang(path string, r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return path + "?lang=" + template.URLQueryEscaper(lang)
	}
	return path
}

// render executes a template into a buffer so a failure can still send a 500
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.WithError(err).WithField("template", name).Error("Executing template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).WithField("correlation_id", CorrelationID(r.Context())).Warn("Writing response")
	}
}
