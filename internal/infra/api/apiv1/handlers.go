package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/infra/logging"
)

const maxReferenceImage = 10 << 20

type batchRequest struct {
	Subject    string `json:"subject"`
	Difficulty int    `json:"difficulty"`
	Mode       string `json:"mode"`
	Count      int    `json:"count"`
	Provider   string `json:"provider"`
}

type secretResponse struct {
	Configured bool   `json:"configured"`
	Preview    string `json:"preview,omitempty"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := bindJSON(r, loginSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.auth.CheckPassword(req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials", Code: "unauthorized"})
		return
	}
	tok, err := s.auth.Mint(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) getSecret(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, secretResponse{Configured: s.secrets.Current() != "", Preview: s.secrets.Preview()})
}

func (s *Server) putSecret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := bindJSON(r, secretSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.secrets.Set(r.Context(), req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getSecret(w, r)
}

func (s *Server) startBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := bindJSON(r, batchSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	batch, err := s.gen.Start(r.Context(), model.GenerationParams{
		Subject:    req.Subject,
		Difficulty: req.Difficulty,
		Mode:       model.AppMode(req.Mode),
		Count:      req.Count,
		Provider:   req.Provider,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, batch)
}

func (s *Server) progress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gen.Progress())
}

func (s *Server) listPages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    s.gen.Pages(),
		"params":   s.gen.Params(),
		"progress": s.gen.Progress(),
	})
}

func (s *Server) retryPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.gen.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, page)
}

func (s *Server) selectPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.export.ToggleSelect(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) pageImage(w http.ResponseWriter, r *http.Request) {
	name, mimeType, data, err := s.export.PageImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	n, err := s.gen.RegenerateSelected(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"count": n})
}

// exportBooklet answers with the PDF itself when the client accepts it,
// otherwise with the export metadata.
func (s *Server) exportBooklet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := bindJSON(r, exportSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = s.gen.Params().Subject
	}
	res, err := s.export.Export(r.Context(), title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/pdf") {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
		_, _ = w.Write(res.Data)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// describe takes the raw image as the request body.
func (s *Server) describe(w http.ResponseWriter, r *http.Request) {
	mimeType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mimeType, "image/") {
		s.writeError(w, r, &validationError{msg: "body must be an image"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxReferenceImage+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(data) == 0 || len(data) > maxReferenceImage {
		s.writeError(w, r, &validationError{msg: "image must be between 1 byte and 10MB"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": s.gen.Describe(r.Context(), mimeType, data)})
}

// ---- responses ----

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= 500 {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrMissingSubject):
		return http.StatusBadRequest, "missing_subject"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "unknown_provider"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrMissingSecret):
		return http.StatusPreconditionFailed, "missing_secret"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrBatchInProgress):
		return http.StatusConflict, "batch_in_progress"
	case errors.Is(err, domain.ErrPageNotReady):
		return http.StatusConflict, "page_not_ready"
	case errors.Is(err, domain.ErrNothingSelected):
		return http.StatusUnprocessableEntity, "nothing_selected"
	case errors.Is(err, domain.ErrDispatchRejected):
		return http.StatusServiceUnavailable, "busy"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
