package textutil

import "testing"

func TestNormalizeUTF8LF(t *testing.T) {
	got := string(NormalizeUTF8LF([]byte("a\r\nb\rc\xffd")))
	if got != "a\nb\nc�d" {
		t.Fatalf("unexpected normalize result: %q", got)
	}
}

func TestEnsureTrailingLF(t *testing.T) {
	cases := map[string]string{"": "", "a": "a\n", "a\n": "a\n"}
	for in, want := range cases {
		if got := string(EnsureTrailingLF([]byte(in))); got != want {
			t.Fatalf("EnsureTrailingLF(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimTrailingBlankLines(t *testing.T) {
	cases := map[string]string{"": "", "\n\n": "", "a\n\n\n": "a\n", "a": "a\n"}
	for in, want := range cases {
		if got := string(TrimTrailingBlankLines([]byte(in))); got != want {
			t.Fatalf("TrimTrailingBlankLines(%q) = %q, want %q", in, got, want)
		}
	}
}
