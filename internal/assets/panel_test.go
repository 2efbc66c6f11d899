package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mjaros/chatterm/internal/api"
)

type fakeService struct {
	uploads   [][]string
	uploaded  []api.UploadedFile
	uploadErr error
	files     []api.FileInfo
	deleted   []string
	text      string
	ocrLang   string
}

func (f *fakeService) UploadFiles(_ context.Context, paths []string) ([]api.UploadedFile, error) {
	f.uploads = append(f.uploads, paths)
	return f.uploaded, f.uploadErr
}

func (f *fakeService) ListFiles(context.Context) ([]api.FileInfo, error) {
	return f.files, nil
}

func (f *fakeService) DeleteFile(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	var kept []api.FileInfo
	for _, fi := range f.files {
		if fi.ID != id {
			kept = append(kept, fi)
		}
	}
	f.files = kept
	return nil
}

func (f *fakeService) ExtractText(context.Context, string) (string, error) {
	return f.text, nil
}

func (f *fakeService) OCR(_ context.Context, _ string, lang string) (string, error) {
	f.ocrLang = lang
	return f.text, nil
}

func writeTempFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestUploadBatchProducesEntriesPerFile(t *testing.T) {
	svc := &fakeService{
		uploaded: []api.UploadedFile{
			{Name: "scan.png", URL: "/f/scan.png", Mime: "image/png"},
			{Name: "notes.pdf", URL: "/f/notes.pdf", Mime: "application/pdf"},
		},
		files: []api.FileInfo{{ID: "1", Name: "scan.png"}, {ID: "2", Name: "notes.pdf"}},
	}
	p := New(svc, zerolog.Nop())

	entries, err := p.Upload(context.Background(), writeTempFiles(t, "scan.png", "notes.pdf"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if len(svc.uploads) != 1 || len(svc.uploads[0]) != 2 {
		t.Errorf("expected one batch request with 2 files, got %v", svc.uploads)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(entries))
	}
	if !entries[0].IsImage || entries[0].URL != "/f/scan.png" {
		t.Errorf("image mime should yield inline preview: %+v", entries[0])
	}
	if entries[1].IsImage || entries[1].Markdown != "[notes.pdf](/f/notes.pdf)" {
		t.Errorf("non-image should yield a link entry: %+v", entries[1])
	}
	if len(p.Files()) != 2 {
		t.Errorf("asset list not refreshed after upload: %v", p.Files())
	}
}

func TestUploadEmptyBatchRejected(t *testing.T) {
	p := New(&fakeService{}, zerolog.Nop())
	if _, err := p.Upload(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

func TestUploadFailureAddsNothing(t *testing.T) {
	svc := &fakeService{uploadErr: errors.New("413 too large")}
	p := New(svc, zerolog.Nop())
	entries, err := p.Upload(context.Background(), writeTempFiles(t, "huge.bin"))
	if err == nil || entries != nil {
		t.Errorf("expected failure with no entries, got %v, %v", entries, err)
	}
}

func TestOCRDefaultsLanguage(t *testing.T) {
	svc := &fakeService{text: "rozpoznany tekst"}
	p := New(svc, zerolog.Nop())

	notice, err := p.OCR(context.Background(), "1", "")
	if err != nil {
		t.Fatalf("OCR failed: %v", err)
	}
	if svc.ocrLang != DefaultOCRLanguages {
		t.Errorf("expected default languages, got %q", svc.ocrLang)
	}
	if notice != "### OCR (pol+eng)\n\n```\nrozpoznany tekst\n```" {
		t.Errorf("unexpected notice: %q", notice)
	}
}

func TestExtractTextNotice(t *testing.T) {
	p := New(&fakeService{text: "plain contents"}, zerolog.Nop())
	notice, err := p.ExtractText(context.Background(), "1")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if notice != "### Extracted text\n\n```\nplain contents\n```" {
		t.Errorf("unexpected notice: %q", notice)
	}
}

func TestDeleteRefreshesList(t *testing.T) {
	svc := &fakeService{files: []api.FileInfo{{ID: "1"}, {ID: "2"}}}
	p := New(svc, zerolog.Nop())
	p.Refresh(context.Background())

	if err := p.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "1" {
		t.Errorf("unexpected delete calls: %v", svc.deleted)
	}
	if _, found := p.Find("1"); found {
		t.Error("deleted asset still present in projection")
	}
	if _, found := p.Find("2"); !found {
		t.Error("surviving asset missing from projection")
	}
}
