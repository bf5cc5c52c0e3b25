package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("Sum not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestCorpus_OrderIndependent(t *testing.T) {
	m1 := map[string]string{"a.md": "1", "b.md": "2", "c/d.md": "3"}
	m2 := map[string]string{"c/d.md": "3", "a.md": "1", "b.md": "2"}
	if Corpus(m1) != Corpus(m2) {
		t.Error("digest depends on map construction order")
	}
}

func TestCorpus_ContentSensitive(t *testing.T) {
	base := map[string]string{"a.md": "1"}
	changed := map[string]string{"a.md": "2"}
	renamed := map[string]string{"b.md": "1"}
	if Corpus(base) == Corpus(changed) {
		t.Error("digest ignores checksum change")
	}
	if Corpus(base) == Corpus(renamed) {
		t.Error("digest ignores path change")
	}
}
