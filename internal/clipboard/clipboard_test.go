package clipboard

import (
	"bytes"
	"os"
	"testing"
)

func TestSaveImageToTemp(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	path, err := SaveImageToTemp(data)
	if err != nil {
		t.Fatalf("SaveImageToTemp failed: %v", err)
	}
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read temp file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("temp file content mismatch: %v", got)
	}
}
