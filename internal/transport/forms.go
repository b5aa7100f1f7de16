package transport

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// formOverhead leaves room for the text fields next to the files.
const formOverhead = 1 << 20

var errMalformedForm = errors.New("request must be multipart/form-data within the upload limits")

// parseForm parses a multipart body capped at maxFiles files of maxBytes each.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64, maxFiles int) error {
	limit := maxBytes*int64(maxFiles) + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		return errMalformedForm
	}
	return nil
}

// formFiles returns the uploads sent under name or name[].
func formFiles(r *http.Request, name string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, r.MultipartForm.File[name]...)
	return append(files, r.MultipartForm.File[name+"[]"]...)
}

// formJSON decodes the JSON-encoded field name into dest. A missing or empty
// field leaves dest untouched and reports false.
func formJSON(r *http.Request, name string, dest interface{}) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, err
	}
	return true, nil
}

// formFloat parses a numeric field; blank means 0.
func formFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// formUUID parses an optional id field; blank or "null" means none.
func formUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" || raw == "null" || raw == "undefined" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	return id, err == nil
}
