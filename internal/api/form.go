package api

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/listenupapp/bookstore-server/internal/service"
)

const (
	// maxBodySize caps every request body, uploads included.
	maxBodySize = 16 << 20
	// multipartMemory is how much of a multipart body is buffered before spilling to disk.
	multipartMemory = 8 << 20
)

// errInvalidBody marks a body that could not be decoded at all.
var errInvalidBody = errors.New("invalid request body")

// untrimmed fields keep their whitespace; every other value is trimmed.
var untrimmed = map[string]bool{
	"password":              true,
	"password_confirmation": true,
}

// form is a request's input flattened to strings, whatever encoding the
// client used. JSON numbers keep their literal text, and null reads as an
// empty value that is still present.
type form struct {
	values map[string]string
	files  map[string]*service.Upload
}

// parseForm reads query parameters and the request body. Body values win
// over query values with the same name.
func parseForm(r *http.Request) (*form, error) {
	f := &form{
		values: make(map[string]string),
		files:  make(map[string]*service.Upload),
	}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			f.values[key] = vals[0]
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return f, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return f, f.readMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		for key, vals := range r.PostForm {
			if len(vals) > 0 {
				f.values[key] = vals[0]
			}
		}
		return f, nil
	default:
		return f, f.readJSON(r.Body)
	}
}

func (f *form) readMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			f.values[key] = vals[0]
		}
	}
	for key, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		up, err := readUpload(headers[0])
		if err != nil {
			return err
		}
		f.files[key] = up
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) (*service.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errInvalidBody, fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errInvalidBody, fh.Filename, err)
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}

func (f *form) readJSON(body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}

	for key, v := range raw {
		switch v.Kind() {
		case '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("%w: %s: %w", errInvalidBody, key, err)
			}
			f.values[key] = s
		case 'n':
			f.values[key] = ""
		case 't':
			f.values[key] = "1"
		case 'f':
			f.values[key] = "0"
		default:
			// Numbers keep their literal text; objects and arrays are passed
			// through compacted and fail whatever rule they meet.
			compact := v.Clone()
			_ = compact.Compact()
			f.values[key] = string(compact)
		}
	}
	return nil
}

// has reports whether key was sent at all.
func (f *form) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// value returns the submitted value for key, or "" when absent.
func (f *form) value(key string) string {
	v := f.values[key]
	if untrimmed[key] {
		return v
	}
	return strings.TrimSpace(v)
}

// optional returns nil when key was not sent, otherwise its value.
func (f *form) optional(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.value(key)
	return &v
}

// file returns the uploaded file for key, or nil.
func (f *form) file(key string) *service.Upload {
	return f.files[key]
}
