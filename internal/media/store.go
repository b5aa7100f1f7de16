package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"h2o-shop/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	ScopeProducts = "products"
	ScopeBanners  = "banners"

	// URLPrefix is where stored files are served from.
	URLPrefix = "/uploads/"
)

var (
	ErrTooManyFiles    = errors.New("too many files in one request")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("only jpeg, png, gif and webp images are allowed")
	ErrInvalidScope    = errors.New("invalid upload scope")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// Store writes uploads below a root directory and serves them back.
type Store struct {
	fs       afero.Fs
	root     string
	maxBytes int64
	maxFiles int
	logger   *zap.Logger
}

// NewStore creates a Store rooted at cfg.Dir on fs.
func NewStore(fs afero.Fs, cfg config.UploadConfig, logger *zap.Logger) *Store {
	return &Store{
		fs:       fs,
		root:     cfg.Dir,
		maxBytes: cfg.MaxBytes,
		maxFiles: cfg.MaxFiles,
		logger:   logger,
	}
}

// MaxFiles is the number of files accepted per request.
func (s *Store) MaxFiles() int {
	return s.maxFiles
}

// MaxBytes is the size limit of a single file.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SaveAll stores every file under scope and returns their public URLs in
// upload order. On failure the files already written are removed again.
func (s *Store) SaveAll(scope string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > s.maxFiles {
		return nil, ErrTooManyFiles
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := s.Save(scope, fh)
		if err != nil {
			s.Remove(scope, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Save validates and stores a single upload as
// {root}/{scope}/{name}-{uuid}{ext} and returns its public URL.
func (s *Store) Save(scope string, fh *multipart.FileHeader) (string, error) {
	if !validScope(scope) {
		return "", ErrInvalidScope
	}
	if fh.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect upload type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	dir := filepath.Join(s.root, scope)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fileName(fh.Filename, mtype.Extension())
	dst, err := s.fs.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	// Size can be missing on hand-built headers, so cap the copy as well.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxBytes {
		dst.Close()
		_ = s.fs.Remove(filepath.Join(dir, name))
		return "", ErrFileTooLarge
	}

	return URLPrefix + scope + "/" + name, nil
}

func fileName(original, ext string) string {
	clean := unsafeName.ReplaceAllString(filepath.Base(original), "_")
	base := strings.TrimSuffix(clean, filepath.Ext(clean))
	if base == "" || base == "." {
		base = "image"
	}
	return base + "-" + uuid.NewString() + ext
}

// Remove deletes the files behind urls. URLs outside {URLPrefix}{scope}/ are
// refused, and failures are logged and skipped. It returns how many files were
// actually deleted.
func (s *Store) Remove(scope string, urls []string) int {
	removed := 0
	for _, url := range urls {
		local, ok := s.LocalPath(scope, url)
		if !ok {
			s.logger.Warn("Refusing to delete file outside upload scope",
				zap.String("path", url),
				zap.String("scope", scope),
			)
			continue
		}

		if err := s.fs.Remove(local); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("File already missing, skipping", zap.String("path", local))
			} else {
				s.logger.Warn("Failed to delete file", zap.String("path", local), zap.Error(err))
			}
			continue
		}
		removed++
	}
	return removed
}

// LocalPath maps a public upload URL to its file path, reporting false for
// anything that does not resolve inside {URLPrefix}{scope}/.
func (s *Store) LocalPath(scope, url string) (string, bool) {
	name, ok := scopedName(scope, url)
	if !ok {
		return "", false
	}
	return filepath.Join(s.root, scope, name), true
}

// InScope reports whether url names a file stored under scope.
func InScope(scope, url string) bool {
	_, ok := scopedName(scope, url)
	return ok
}

func scopedName(scope, url string) (string, bool) {
	if !validScope(scope) {
		return "", false
	}

	prefix := URLPrefix + scope + "/"
	cleaned := path.Clean(url)
	if !strings.HasPrefix(cleaned, prefix) {
		return "", false
	}

	name := strings.TrimPrefix(cleaned, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// Handler serves stored files; mount it under URLPrefix.
func (s *Store) Handler() http.Handler {
	httpFs := afero.NewHttpFs(s.fs)
	return http.StripPrefix(URLPrefix, http.FileServer(httpFs.Dir(s.root)))
}

func validScope(scope string) bool {
	return scope == ScopeProducts || scope == ScopeBanners
}
