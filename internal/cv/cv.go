// Package cv validates the CV document before it is uploaded to the
// interview service. Only PDF files are accepted.
package cv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const MaxFileSize = 10 * 1024 * 1024 // 10MB

var (
	ErrNotPDF       = errors.New("cv must be a PDF file")
	ErrEmptyFile    = errors.New("cv file is empty")
	ErrFileTooLarge = errors.New("cv file too large - maximum 10MB allowed")
)

// Summary describes a validated CV document.
type Summary struct {
	Path      string
	Filename  string
	SizeBytes int64
	Pages     int
}

// Check validates the file at path: it must exist, be non-empty, carry a .pdf
// extension, stay under MaxFileSize, and pass structural PDF validation.
func Check(path string) (*Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat cv: %w", err)
	}

	if info.Size() == 0 {
		return nil, ErrEmptyFile
	}
	if info.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, ErrNotPDF
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	return &Summary{
		Path:      path,
		Filename:  filepath.Base(path),
		SizeBytes: info.Size(),
		Pages:     pages,
	}, nil
}
