package transport

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestRewindBody_ReplaysConsumedBody(t *testing.T) {
	const payload = `{"cart_id":"abc"}`

	req, err := http.NewRequest(http.MethodPost, "https://shop.example/cart/sync", bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatal(err)
	}

	// Drain the body the way a failed protocol attempt would.
	if _, err := io.Copy(io.Discard, req.Body); err != nil {
		t.Fatal(err)
	}
	req.Body.Close()

	if !rewindBody(req) {
		t.Fatal("rewindBody() = false for a replayable body, want true")
	}
	got, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != payload {
		t.Errorf("replayed body = %q, want %q", got, payload)
	}
}

func TestRewindBody_NoBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://shop.example/cart", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !rewindBody(req) {
		t.Error("rewindBody() = false for a bodyless request, want true")
	}
}

func TestRewindBody_RefusesOneShotBody(t *testing.T) {
	// A streaming body with no GetBody cannot be reproduced; the retry
	// must be refused rather than resent empty.
	req, err := http.NewRequest(http.MethodPost, "https://shop.example/cart/sync", strings.NewReader("stream"))
	if err != nil {
		t.Fatal(err)
	}
	req.GetBody = nil

	if rewindBody(req) {
		t.Error("rewindBody() = true for a one-shot body, want false")
	}
}
