package web

import (
	"errors"
	"io"
	"mime"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
)

// pageData feeds every HTML template
type pageData struct {
	Labels mapview.Labels
	Lang   string
	Error  string
	Notice string
	Result *mapview.Page
}

func (s *Server) newPage(r *http.Request) pageData {
	labels := s.labels(r)
	return pageData{Labels: labels, Lang: labels.Lang()}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if s.portCount != nil {
		n, err := s.portCount(r.Context())
		if err != nil {
			writeJSONError(w, r, http.StatusServiceUnavailable, "reference table unavailable")
			return
		}
		body["ports"] = n
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil && sess.Authenticated {
		http.Redirect(w, r, withLang("/", r), http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", http.StatusOK, s.newPage(r))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ok, err := s.sessions.Login(w, r, sess, r.PostFormValue("password"))
	if err != nil {
		log.WithError(err).Error("Saving session after login")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		data := s.newPage(r)
		data.Error = data.Labels.WrongPassword()
		s.render(w, r, "login.html", http.StatusUnauthorized, data)
		return
	}
	http.Redirect(w, r, withLang("/", r), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r, sessionFrom(r)); err != nil {
		log.WithError(err).Warn("Logging out")
	}
	http.Redirect(w, r, withLang("/login", r), http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", http.StatusOK, s.newPage(r))
}

// uploadedFile returns the multipart "file" field
func uploadedFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r)

	f, err := uploadedFile(w, r)
	if err != nil {
		log.WithError(err).Warn("Reading upload")
		data.Error = data.Labels.ParseError(uploadErrorDetail(err))
		s.render(w, r, "index.html", http.StatusBadRequest, data)
		return
	}
	defer f.Close()

	res := s.pipeline.Run(r.Context(), f, sessionFrom(r).Ports)
	switch res.Status {
	case retrieval.StatusEmpty:
		data.Notice = data.Labels.Empty()
	case retrieval.StatusError:
		data.Error = data.Labels.Problem(string(res.Kind), res.Message)
	default:
		page := s.builder.Build(res.Matches, data.Labels)
		data.Result = &page
	}
	s.render(w, r, "index.html", http.StatusOK, data)
}

func uploadErrorDetail(err error) string {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return "file too large"
	case errors.Is(err, http.ErrMissingFile):
		return "no file selected"
	default:
		return "invalid upload"
	}
}

// apiResponse is the body of a successful /api/retrievals call
type apiResponse struct {
	Status  retrieval.Status `json:"status"`
	Count   int              `json:"count"`
	Message string           `json:"message,omitempty"`
	Page    *mapview.Page    `json:"page,omitempty"`
}

func (s *Server) handleAPIRetrievals(w http.ResponseWriter, r *http.Request) {
	labels := s.labels(r)

	// Multipart uploads and raw text/csv bodies are both accepted
	var body io.ReadCloser
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, err := uploadedFile(w, r)
		if err != nil {
			writeJSONErrorKind(w, r, http.StatusBadRequest, string(retrieval.KindParse), uploadErrorDetail(err))
			return
		}
		body = f
	} else {
		body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	}
	defer body.Close()

	res := s.pipeline.Run(r.Context(), body, sessionFrom(r).Ports)
	switch res.Status {
	case retrieval.StatusError:
		writeJSONErrorKind(w, r, statusForKind(res.Kind), string(res.Kind), res.Message)
	case retrieval.StatusEmpty:
		writeJSON(w, http.StatusOK, apiResponse{Status: res.Status, Message: labels.Empty()})
	default:
		page := s.builder.Build(res.Matches, labels)
		writeJSON(w, http.StatusOK, apiResponse{Status: res.Status, Count: len(res.Matches), Page: &page})
	}
}

func statusForKind(kind retrieval.ErrorKind) int {
	switch kind {
	case retrieval.KindParse, retrieval.KindSchema:
		return http.StatusUnprocessableEntity
	case retrieval.KindNoReference:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
