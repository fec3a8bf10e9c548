package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CDR-Shepard/removal-app/internal/utils"
)

func TestSuffixedPath(t *testing.T) {
	cases := []struct {
		in, suffix, want string
	}{
		{"clips.csv", ".updated", "clips.updated.csv"},
		{filepath.Join("a", "b.tsv"), "_trim", filepath.Join("a", "b_trim.tsv")},
		{"noext", ".updated", "noext.updated"},
	}
	for _, c := range cases {
		if got := utils.SuffixedPath(c.in, c.suffix); got != c.want {
			t.Errorf("SuffixedPath(%q, %q) = %q, want %q", c.in, c.suffix, got, c.want)
		}
	}
}

func TestUniquePathAndSafeWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.csv")
	if got := utils.UniquePath(p); got != p {
		t.Fatalf("expected free path unchanged, got %s", got)
	}
	if err := utils.SafeWriteFile(p, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
	want := filepath.Join(dir, "out__2.csv")
	if got := utils.UniquePath(p); got != want {
		t.Fatalf("UniquePath = %s, want %s", got, want)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected json: %s", b)
	}
}
