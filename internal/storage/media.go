// Package storage manages the media directory holding uploaded and processed workbooks.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
)

var (
	ErrInvalidName        = errors.New("invalid file name")
	ErrUnsupportedContent = errors.New("unsupported file content")
)

const maxNameAttempts = 20

// Media resolves names relative to a single root directory.
type Media struct {
	root   string
	logger *slog.Logger
}

func NewMedia(root string, logger *slog.Logger) (*Media, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	return &Media{root: abs, logger: logger}, nil
}

func (m *Media) Root() string { return m.root }

// Path returns the absolute path of a stored name. Names that would escape
// the media root are rejected.
func (m *Media) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.root, name), nil
}

// Exists reports whether name is a regular file under the root.
func (m *Media) Exists(name string) bool {
	p, err := m.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Open opens a stored file for reading.
func (m *Media) Open(name string) (*os.File, error) {
	p, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("media %q: %w", name, common.ErrNotFound)
	}
	return f, err
}

// Save copies r under a cleaned version of original. When the name is taken a
// short random suffix is added before the extension. It returns the stored name.
func (m *Media) Save(original string, r io.Reader) (string, error) {
	clean := CleanName(original)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, original)
	}

	f, name, err := m.create(clean)
	if err != nil {
		return "", err
	}
	p := f.Name()

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("media write %q: %w", name, err)
	}

	m.logger.Info("media.saved", "name", name, "original", original, "bytes", n)
	return name, nil
}

// SaveSpreadsheet stores r like Save and then checks that the content is an
// Office Open XML (zip) container. Rejected files are removed. Names carrying
// the output prefix are refused so an upload can never be overwritten by the
// output of another job.
func (m *Media) SaveSpreadsheet(original string, r io.Reader) (string, error) {
	if strings.HasPrefix(strings.ToLower(CleanName(original)), strings.ToLower(constants.OutputPrefix)) {
		return "", fmt.Errorf("%w: %q uses the reserved prefix %q", ErrInvalidName, original, constants.OutputPrefix)
	}
	name, err := m.Save(original, r)
	if err != nil {
		return "", err
	}
	p, _ := m.Path(name)

	mtype, err := mimetype.DetectFile(p)
	if err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("detect content: %w", err)
	}
	if !isZipFamily(mtype) {
		_ = os.Remove(p)
		m.logger.Warn("media.rejected", "name", name, "mime", mtype.String())
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, mtype.String())
	}
	return name, nil
}

// Remove deletes a stored file; missing files are ignored.
func (m *Media) Remove(name string) error {
	p, err := m.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (m *Media) create(clean string) (*os.File, string, error) {
	ext := filepath.Ext(clean)
	stem := strings.TrimSuffix(clean, ext)

	name := clean
	for range maxNameAttempts {
		f, err := os.OpenFile(filepath.Join(m.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("media create %q: %w", name, err)
		}
		name = stem + "_" + uuid.NewString()[:7] + ext
	}
	return nil, "", fmt.Errorf("media create %q: no free name after %d attempts", clean, maxNameAttempts)
}

// CleanName keeps the base name, turns spaces into underscores and drops
// anything other than letters, digits, dash, underscore and dot.
func CleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || out == "." {
		return ""
	}
	return out
}

func isZipFamily(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
