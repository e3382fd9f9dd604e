package vault

import (
	"strings"
	"testing"
)

func TestParseDocument(t *testing.T) {
	t.Run("basic header and body", func(t *testing.T) {
		fields, body := ParseDocument("---\ntype: email\nto: a@example.com\n---\n\nHello there.\n")
		if got := fields.Get("type"); got != "email" {
			t.Errorf("type = %q, want %q", got, "email")
		}
		if got := fields.Get("to"); got != "a@example.com" {
			t.Errorf("to = %q, want %q", got, "a@example.com")
		}
		if body != "Hello there." {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("repeated key keeps first value", func(t *testing.T) {
		fields, _ := ParseDocument("---\nsubject: first\nsubject: second\n---\nbody")
		if got := fields.Get("subject"); got != "first" {
			t.Errorf("subject = %q, want %q", got, "first")
		}
		if fields.Len() != 1 {
			t.Errorf("Len = %d, want 1", fields.Len())
		}
	})

	t.Run("keys lowercased and trimmed", func(t *testing.T) {
		fields, _ := ParseDocument("---\n  Subject : Quarterly Report \n---\nbody")
		if got := fields.Get("subject"); got != "Quarterly Report" {
			t.Errorf("subject = %q, want %q", got, "Quarterly Report")
		}
	})

	t.Run("value may contain colons", func(t *testing.T) {
		fields, _ := ParseDocument("---\nreceived: 2026-01-02T10:30:00Z\n---\nbody")
		if got := fields.Get("received"); got != "2026-01-02T10:30:00Z" {
			t.Errorf("received = %q", got)
		}
	})

	t.Run("no fence is all body", func(t *testing.T) {
		fields, body := ParseDocument("just some notes\nkey: value looking line\n")
		if fields.Len() != 0 {
			t.Errorf("Len = %d, want 0", fields.Len())
		}
		if !strings.Contains(body, "key: value looking line") {
			t.Errorf("body dropped content: %q", body)
		}
	})

	t.Run("unterminated fence consumes everything as header", func(t *testing.T) {
		fields, body := ParseDocument("---\ntype: email\nno closing fence")
		if got := fields.Get("type"); got != "email" {
			t.Errorf("type = %q", got)
		}
		if body != "" {
			t.Errorf("body = %q, want empty", body)
		}
	})

	t.Run("crlf normalized", func(t *testing.T) {
		fields, body := ParseDocument("---\r\ntype: email\r\n---\r\nHello\r\n")
		if got := fields.Get("type"); got != "email" {
			t.Errorf("type = %q", got)
		}
		if body != "Hello" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("lines without colon ignored", func(t *testing.T) {
		fields, _ := ParseDocument("---\ntype: email\nstray line\n---\nbody")
		if fields.Len() != 1 {
			t.Errorf("Len = %d, want 1", fields.Len())
		}
	})
}

func TestRenderDocumentRoundTrip(t *testing.T) {
	original := "---\ntype: email\nto: a@example.com\nsubject: hi\n---\n\nBody text.\n"
	fields, body := ParseDocument(original)
	rendered := RenderDocument(fields, body)
	if rendered != original {
		t.Errorf("round trip mismatch:\ngot  %q\nwant %q", rendered, original)
	}
}

func TestFieldsSetPreservesOrder(t *testing.T) {
	f := NewFields()
	f.Set("b", "1")
	f.Set("a", "2")
	f.Set("b", "3")

	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys = %v, want [b a]", keys)
	}
	if f.Get("b") != "3" {
		t.Errorf("Set should overwrite, got %q", f.Get("b"))
	}
}
