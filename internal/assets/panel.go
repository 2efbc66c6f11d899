package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/input"
)

// ErrNoFiles rejects an empty upload batch.
var ErrNoFiles = errors.New("no files to upload")

// DefaultOCRLanguages is the language spec offered when the user does
// not pick one.
const DefaultOCRLanguages = "pol+eng"

// Service is the subset of the API client the panel needs.
type Service interface {
	UploadFiles(ctx context.Context, paths []string) ([]api.UploadedFile, error)
	ListFiles(ctx context.Context) ([]api.FileInfo, error)
	DeleteFile(ctx context.Context, id string) error
	ExtractText(ctx context.Context, id string) (string, error)
	OCR(ctx context.Context, id, lang string) (string, error)
}

// Entry is the timeline notice produced for one uploaded file: an
// inline image preview for image/* mimes, a markdown link otherwise.
type Entry struct {
	IsImage bool
	URL     string
	// Markdown is the link text for non-image files.
	Markdown string
	Name     string
}

// Panel keeps the optimistic list of uploaded assets. Explicit
// selection, drag-drop and clipboard paste are three entry points for
// the same Upload operation.
type Panel struct {
	svc   Service
	files []api.FileInfo
	log   zerolog.Logger
}

// New creates a panel over the file service.
func New(svc Service, log zerolog.Logger) *Panel {
	return &Panel{svc: svc, log: log}
}

// Files returns the current asset list projection.
func (p *Panel) Files() []api.FileInfo {
	return p.files
}

// Refresh re-fetches the asset list from the server.
func (p *Panel) Refresh(ctx context.Context) error {
	files, err := p.svc.ListFiles(ctx)
	if err != nil {
		return err
	}
	p.files = files
	return nil
}

// Upload expands the arguments (globs, ~ paths), submits the result as
// one batch and returns a timeline entry per uploaded file. The asset
// list is refreshed afterwards; a refresh failure is logged but does
// not fail an otherwise successful upload.
func (p *Panel) Upload(ctx context.Context, args []string) ([]Entry, error) {
	paths, err := input.ExpandPaths(args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	uploaded, err := p.svc.UploadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(uploaded))
	for _, f := range uploaded {
		if strings.HasPrefix(f.Mime, "image/") {
			entries = append(entries, Entry{IsImage: true, URL: f.URL, Name: f.Name})
			continue
		}
		entries = append(entries, Entry{
			URL:      f.URL,
			Name:     f.Name,
			Markdown: fmt.Sprintf("[%s](%s)", f.Name, f.URL),
		})
	}
	if err := p.Refresh(ctx); err != nil {
		p.log.Warn().Err(err).Msg("asset list refresh after upload failed")
	}
	return entries, nil
}

// ExtractText runs server-side extraction and formats the result as
// an assistant-style timeline notice.
func (p *Panel) ExtractText(ctx context.Context, id string) (string, error) {
	text, err := p.svc.ExtractText(ctx, id)
	if err != nil {
		return "", err
	}
	return "### Extracted text\n\n```\n" + text + "\n```", nil
}

// OCR runs server-side OCR with the given language spec and formats
// the result as a timeline notice.
func (p *Panel) OCR(ctx context.Context, id, lang string) (string, error) {
	if strings.TrimSpace(lang) == "" {
		lang = DefaultOCRLanguages
	}
	text, err := p.svc.OCR(ctx, id, lang)
	if err != nil {
		return "", err
	}
	return "### OCR (" + lang + ")\n\n```\n" + text + "\n```", nil
}

// Delete removes an asset server-side and refreshes the list. The
// confirmation gate runs before this is called.
func (p *Panel) Delete(ctx context.Context, id string) error {
	if err := p.svc.DeleteFile(ctx, id); err != nil {
		return err
	}
	return p.Refresh(ctx)
}

// Find looks up an asset by id in the current projection.
func (p *Panel) Find(id string) (api.FileInfo, bool) {
	for _, f := range p.files {
		if f.ID == id {
			return f, true
		}
	}
	return api.FileInfo{}, false
}
