package gmail

import (
	"encoding/base64"
	"testing"
)

func TestRawHeaders(t *testing.T) {
	raw := "Subject: Weekly\r\n shipments\r\nFrom: ops@example.com\r\nMessage-ID: <1@x>\r\n\r\nSubject: not a header\r\n"
	h := rawHeaders([]byte(raw))
	if h["subject"] != "Weekly shipments" || h["from"] != "ops@example.com" || h["message-id"] != "<1@x>" {
		t.Fatalf("headers=%v", h)
	}
}

func TestDecodeBase64URL(t *testing.T) {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString([]byte("raw?>message")))
		if err != nil || string(got) != "raw?>message" {
			t.Fatalf("got=%q err=%v", got, err)
		}
	}
	if _, err := decodeBase64URL("!!"); err == nil {
		t.Fatal("expected error")
	}
}
