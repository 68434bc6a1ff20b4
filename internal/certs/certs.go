// Package certs stores uploaded training certificates on local disk.
package certs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"logbook/internal/core"
	"logbook/internal/log"
)

// LinkPrefix is the path under which certificate links are published.
const LinkPrefix = "certificates"

var (
	ErrInvalidName     = errors.New("invalid certificate name")
	ErrUnsupportedType = errors.New("unsupported certificate type")
	ErrNotFound        = errors.New("certificate not found")
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Store keeps certificate files in one directory. Saving a name that
// already exists overwrites it.
type Store struct {
	dir    string
	logger *log.Logger
}

func NewStore(dir string, logger *log.Logger) *Store {
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Component = log.ComponentCerts
		logger = log.New(cfg)
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory certificates are written to.
func (s *Store) Dir() string { return s.dir }

// AllowedExtension reports whether ext (with its dot) may be uploaded.
func AllowedExtension(ext string) bool {
	return allowedExtensions[strings.ToLower(ext)]
}

// FileName builds "{name}_{role}_{YYYYMMDD}_{agency}{ext}" with spaces in
// each part replaced by underscores. ext keeps its leading dot.
func FileName(name, role string, due core.Date, agency, ext string) string {
	clean := func(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), " ", "_") }
	return fmt.Sprintf("%s_%s_%s_%s%s", clean(name), clean(role), due.Compact(), clean(agency), ext)
}

// Link returns the published link of a stored certificate.
func Link(name string) string {
	return LinkPrefix + "/" + url.PathEscape(name)
}

// Save writes the content of r under name and returns the file path.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if !AllowedExtension(filepath.Ext(name)) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(name))
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create certificate directory: %w", core.ErrIO, err)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: write certificate: %w", core.ErrIO, err)
	}

	s.logger.InfoContext(ctx, "Certificate stored",
		log.FieldFile, name, "bytes", n, log.FieldOperation, log.OpUpload)
	return path, nil
}

// Open returns the stored certificate called name.
func (s *Store) Open(name string) (*os.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return f, nil
}

// NameFromLink extracts the file name from a published link, or returns
// link unchanged when it is already a bare name.
func NameFromLink(link string) string {
	trimmed := strings.TrimPrefix(link, LinkPrefix+"/")
	if name, err := url.PathUnescape(trimmed); err == nil {
		return name
	}
	return trimmed
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
