package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"contract.pdf", "contract.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\seal image.png`, "seal_image.png"},
		{"合同.docx", "__.docx"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("a", 300) + ".pdf")
	if len(long) != maxFilenameLen || !strings.HasSuffix(long, ".pdf") {
		t.Errorf("long name = %q (%d chars)", long, len(long))
	}
}

func TestTempName(t *testing.T) {
	a, b := TempName("sealed", ".pdf"), TempName("sealed", ".pdf")
	if a == b {
		t.Fatal("expected unique names")
	}
	if !strings.HasPrefix(a, "sealed-") || !strings.HasSuffix(a, ".pdf") {
		t.Errorf("unexpected name %q", a)
	}
	if s := StoredName("sig", "my seal.png"); !strings.HasSuffix(s, "-my_seal.png") {
		t.Errorf("StoredName = %q", s)
	}
}
