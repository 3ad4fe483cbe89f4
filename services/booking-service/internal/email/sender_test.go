package email

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	raw := buildMessage("<id@shop.test>", "hello@shop.test", Message{
		To:      "ada@example.com",
		Subject: "Booking confirmed",
		Body:    "line one\nline two",
	})
	for _, want := range []string{
		"Message-ID: <id@shop.test>\r\n",
		"To: ada@example.com\r\n",
		"Subject: Booking confirmed\r\n",
		"\r\n\r\nline one\r\nline two\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestNewMessageIDUsesSenderDomain(t *testing.T) {
	id := newMessageID("no-reply@shop.test")
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@shop.test>") {
		t.Fatalf("unexpected id %q", id)
	}
	if id := newMessageID("broken"); !strings.HasSuffix(id, "@localhost>") {
		t.Fatalf("unexpected fallback id %q", id)
	}
}
