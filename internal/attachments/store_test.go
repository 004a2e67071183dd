package attachments

import (
	"strings"
	"testing"
)

func TestObjectKeyNamespacesAndSanitizes(t *testing.T) {
	key := objectKey("8f2a", "../shots/My Photo!.jpeg", ".jpg")

	if !strings.HasPrefix(key, "8f2a/") {
		t.Fatalf("key %q not namespaced under crisis ref", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("key %q missing normalized extension", key)
	}
	if strings.Contains(key, "..") || strings.Contains(key, " ") || strings.Contains(key, "!") {
		t.Fatalf("key %q carries unsafe characters", key)
	}
}

func TestObjectKeyUniquePerUpload(t *testing.T) {
	a := objectKey("ref", "photo.jpg", ".jpg")
	b := objectKey("ref", "photo.jpg", ".jpg")
	if a == b {
		t.Fatalf("expected distinct keys for repeated uploads, got %q twice", a)
	}
}

func TestExtractGPSRejectsNonImages(t *testing.T) {
	if got := extractGPS([]byte("not an image")); got != nil {
		t.Fatalf("expected nil GPS fix, got %+v", got)
	}
}
