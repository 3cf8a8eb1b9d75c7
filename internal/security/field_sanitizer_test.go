package security

import "testing"

func TestSanitizeText_EmptyInput(t *testing.T) {
	s := NewFieldSanitizer()
	if got := s.SanitizeText(""); got != "" {
		t.Errorf("SanitizeText(\"\") = %q, want empty", got)
	}
}

func TestSanitizeText_PlainTextUnchanged(t *testing.T) {
	s := NewFieldSanitizer()
	in := "Stocks rally as markets open higher"
	if got := s.SanitizeText(in); got != in {
		t.Errorf("SanitizeText(%q) = %q, want unchanged", in, got)
	}
}

func TestSanitizeText_StripsTags(t *testing.T) {
	s := NewFieldSanitizer()
	got := s.SanitizeText(`<b>Breaking</b>: markets <a href="https://x.com">rally</a>`)
	want := "Breaking: markets rally"
	if got != want {
		t.Errorf("SanitizeText = %q, want %q", got, want)
	}
}

func TestSanitizeText_RemovesScript(t *testing.T) {
	s := NewFieldSanitizer()
	got := s.SanitizeText(`Title<script>alert("x")</script>`)
	if got != "Title" {
		t.Errorf("SanitizeText = %q, want %q", got, "Title")
	}
}

func TestSanitizeText_UnescapesEntities(t *testing.T) {
	s := NewFieldSanitizer()
	got := s.SanitizeText("Q&amp;A with the CEO")
	if got != "Q&A with the CEO" {
		t.Errorf("SanitizeText = %q, want %q", got, "Q&A with the CEO")
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewFieldSanitizer()
	in := "<p>Some <em>news</em> text</p>"
	once := s.SanitizeText(in)
	twice := s.SanitizeText(once)
	if once != twice {
		t.Errorf("サニタイズは冪等であるべき: %q vs %q", once, twice)
	}
}
