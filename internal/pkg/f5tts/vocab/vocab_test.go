package vocab

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVocab(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	return path
}

func TestLoadAndEncode(t *testing.T) {
	// Line index is the token id; first line is the space token.
	v, err := Load(writeVocab(t, " \na\nb\nc\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.Size() != 4 {
		t.Errorf("Size() = %d, want 4", v.Size())
	}

	got := v.Encode("abc")
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Encode = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Encode = %v, want %v", got, want)
		}
	}
}

func TestEncodeUnknownRuneFallsBackToSpace(t *testing.T) {
	v, err := Load(writeVocab(t, " \na\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := v.Encode("axa")
	if len(got) != 3 {
		t.Fatalf("Encode length = %d, want 3", len(got))
	}
	if got[1] != 0 {
		t.Errorf("unknown rune id = %d, want space id 0", got[1])
	}
}

func TestEncodeNFCNormalization(t *testing.T) {
	// Vocab holds the composed form; decomposed input must still match.
	v, err := Load(writeVocab(t, " \né\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := v.Encode("é")
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Encode(decomposed) = %v, want [1]", got)
	}
}

func TestLoadEmptyVocab(t *testing.T) {
	if _, err := Load(writeVocab(t, "")); err == nil {
		t.Fatal("expected error for empty vocab file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing vocab file")
	}
}

func TestHas(t *testing.T) {
	v, err := Load(writeVocab(t, " \na\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !v.Has("a") {
		t.Error("Has(a) = false, want true")
	}
	if v.Has("z") {
		t.Error("Has(z) = true, want false")
	}
}
