package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetops/internal/accumulator"
)

// maxUploadMemory is the part of a multipart body kept in memory.
const maxUploadMemory = 32 << 20

// Uploads stores trip attachments on local disk.
type Uploads struct {
	dir string
}

// NewUploads creates an Uploads rooted at dir.
func NewUploads(dir string) *Uploads {
	return &Uploads{dir: dir}
}

// readTripForm splits a trip submission into its category fields and the
// stored references of its attachments. Plain url-encoded forms carry no files.
func (u *Uploads) readTripForm(c *gin.Context) (map[string]string, accumulator.Files, error) {
	fields := make(map[string]string)

	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := c.Request.ParseForm(); err != nil {
			return nil, nil, err
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				fields[k] = v[len(v)-1]
			}
		}
		return fields, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	for k, v := range form.Value {
		if len(v) > 0 {
			fields[k] = v[len(v)-1]
		}
	}

	files := make(accumulator.Files)
	for _, field := range accumulator.FileFields() {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		if err := os.MkdirAll(u.dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create uploads dir: %w", err)
		}
		for _, header := range headers {
			name := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
			dst := filepath.Join(u.dir, name)
			if err := c.SaveUploadedFile(header, dst); err != nil {
				return nil, nil, errors.Join(fmt.Errorf("save %s: %w", field, err), u.discard(files))
			}
			files[field] = append(files[field], filepath.ToSlash(dst))
		}
	}

	return fields, files, nil
}

// discard removes attachments stored for a submission that was not applied.
func (u *Uploads) discard(files accumulator.Files) error {
	var errs []error
	for _, paths := range files {
		for _, path := range paths {
			if err := os.Remove(filepath.FromSlash(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
