package services

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractTextFromPath_Plain(t *testing.T) {
	s := NewFileExtractService(0)

	path := writeFile(t, "notes.md", []byte("# Title  \r\n\r\n\r\n\r\n  body line\n"))
	got, err := s.ExtractTextFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "# Title\n\nbody line"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractTextFromPath_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Hello &amp; welcome</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p></w:body></w:document>`))
	zw.Close()
	f.Close()

	got, err := NewFileExtractService(0).ExtractTextFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Hello & welcome\nSecond\tline"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractTextFromPath_Errors(t *testing.T) {
	s := NewFileExtractService(0)

	if _, err := s.ExtractTextFromPath(writeFile(t, "image.png", []byte{0x89, 'P', 'N', 'G'})); !errors.Is(err, ErrUnsupportedDocument) {
		t.Errorf("png: expected ErrUnsupportedDocument, got %v", err)
	}
	if _, err := s.ExtractTextFromPath(writeFile(t, "blank.txt", []byte("  \n\n \t"))); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("blank: expected ErrEmptyDocument, got %v", err)
	}
	if _, err := s.ExtractTextFromPath(writeFile(t, "bin.txt", []byte{0xff, 0xfe, 0x00})); !errors.Is(err, ErrUnsupportedDocument) {
		t.Errorf("binary: expected ErrUnsupportedDocument, got %v", err)
	}
	if _, err := s.ExtractTextFromPath(writeFile(t, "bad.docx", []byte("not a zip"))); err == nil {
		t.Error("corrupt docx should fail")
	}
}

func TestExtractTextFromPath_Truncates(t *testing.T) {
	path := writeFile(t, "long.txt", []byte("héllo world"))
	got, err := NewFileExtractService(5).ExtractTextFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "héllo" {
		t.Errorf("got %q", got)
	}
}
