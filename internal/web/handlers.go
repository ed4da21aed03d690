package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
	"github.com/gui-xie/import-export/pkg/imexport/models"
	"github.com/gui-xie/import-export/pkg/imexport/output"
)

var errUnknownDefinition = errors.New("unknown definition")

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"definitions": s.deps.Definitions.Len(),
	}
	if s.deps.Loader != nil {
		resp["codec"] = s.deps.Loader.State().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listDefinitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"definitions": s.deps.Definitions.Names(),
	})
}

func (s *Server) template(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}

	saver := imexport.SaverFunc(func(ctx context.Context, name, contentType string, data []byte) error {
		writeWorkbook(w, name, data)
		return nil
	})
	if err := s.deps.Service.DownloadTemplate(r.Context(), def, saver); err != nil {
		writeError(w, r, err)
	}
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}

	format, err := requestFormat(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(s.limit(w, r.Body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := output.Decode(body, format)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}

	if def.ImageFetcher == nil {
		def.ImageFetcher = s.deps.ImageFetcher
	}
	buf, err := s.deps.Service.ExportRecords(r.Context(), def, records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeWorkbook(w, imexport.FileName(def.Name), buf)
}

func (s *Server) importRecords(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}

	format, err := responseFormat(r.Header.Get("Accept"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, closeBody, err := s.upload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeBody()

	records, err := s.deps.Service.ImportFrom(r.Context(), def, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := output.Encode(records, format, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// definition looks up the {name} route parameter and writes a 404 when it
// is not registered.
func (s *Server) definition(w http.ResponseWriter, r *http.Request) (*models.TableDefinition, bool) {
	name := chi.URLParam(r, "name")
	def, ok := s.deps.Definitions.Get(name)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", errUnknownDefinition, name))
		return nil, false
	}
	return def, true
}

// upload returns the workbook of an import request: the multipart field
// "file" or the raw body.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return s.limit(w, r.Body), func() {}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, badRequest(err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, badRequest(fmt.Errorf("form field %q: %w", "file", err))
	}
	return file, func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}, nil
}

func (s *Server) limit(w http.ResponseWriter, body io.ReadCloser) io.Reader {
	return http.MaxBytesReader(w, body, s.maxUpload())
}

func (s *Server) maxUpload() int64 {
	if s.deps.MaxUploadBytes <= 0 {
		return 1<<63 - 1
	}
	return s.deps.MaxUploadBytes
}

// requestFormat picks the record format of an export body from its
// Content-Type. An absent header means JSON.
func requestFormat(contentType string) (output.Format, error) {
	if contentType == "" {
		return output.FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", badRequest(err)
	}
	f, err := formatOf(mediaType)
	if err != nil {
		return "", badRequest(err)
	}
	return f, nil
}

// responseFormat picks the first supported format listed in an Accept
// header, defaulting to JSON.
func responseFormat(accept string) (output.Format, error) {
	if accept == "" {
		return output.FormatJSON, nil
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == "*/*" || mediaType == "application/*" {
			return output.FormatJSON, nil
		}
		if f, err := formatOf(mediaType); err == nil {
			return f, nil
		}
	}
	return "", badRequest(fmt.Errorf("%w: %q", output.ErrUnknownFormat, accept))
}

func formatOf(mediaType string) (output.Format, error) {
	switch mediaType {
	case "application/json", "text/json":
		return output.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return output.FormatYAML, nil
	case "application/cbor":
		return output.FormatCBOR, nil
	default:
		return output.ParseFormat(strings.TrimPrefix(mediaType, "application/"))
	}
}

type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

// statusOf maps an error to an HTTP status code.
func statusOf(err error) int {
	var reqErr *requestError
	var maxErr *http.MaxBytesError
	var decodeErr *codec.DecodeError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnknownDefinition):
		return http.StatusNotFound
	case errors.As(err, &reqErr), errors.Is(err, imexport.ErrEmptyBuffer):
		return http.StatusBadRequest
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", imexport.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
