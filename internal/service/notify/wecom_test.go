package notify

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ChartSentry/internal/domain/models"
	"ChartSentry/pkg/logger"
)

func TestNotifyTextAndImages(t *testing.T) {
	var payloads []map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		payloads = append(payloads, p)
		w.Write([]byte(`{"errcode": 0, "errmsg": "ok"}`))
	}))
	defer srv.Close()

	n := NewWeComNotifier(srv.URL, logger.Nop())
	img := models.ChartImage{Name: "XAUUSD_1.png", Data: []byte("fake-png")}

	if err := n.Notify(context.Background(), "signal report", []models.ChartImage{img}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("payloads = %d, want 2 (text then image)", len(payloads))
	}

	var msgType string
	json.Unmarshal(payloads[0]["msgtype"], &msgType)
	if msgType != "text" {
		t.Errorf("first msgtype = %q, want text", msgType)
	}

	json.Unmarshal(payloads[1]["msgtype"], &msgType)
	if msgType != "image" {
		t.Fatalf("second msgtype = %q, want image", msgType)
	}
	var imgBody struct {
		Base64 string `json:"base64"`
		MD5    string `json:"md5"`
	}
	json.Unmarshal(payloads[1]["image"], &imgBody)
	if imgBody.Base64 != base64.StdEncoding.EncodeToString(img.Data) {
		t.Error("image base64 mismatch")
	}
	sum := md5.Sum(img.Data)
	if imgBody.MD5 != hex.EncodeToString(sum[:]) {
		t.Error("image md5 mismatch")
	}
}

func TestNotifyTruncatesText(t *testing.T) {
	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p textPayload
		json.NewDecoder(r.Body).Decode(&p)
		content = p.Text.Content
		w.Write([]byte(`{"errcode": 0}`))
	}))
	defer srv.Close()

	n := NewWeComNotifier(srv.URL, logger.Nop(), WithMaxTextLen(10))
	if err := n.Notify(context.Background(), strings.Repeat("x", 50), nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if content != strings.Repeat("x", 10)+"..." {
		t.Errorf("content = %q", content)
	}
}

func TestNotifyTextFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode": 93000, "errmsg": "invalid webhook url"}`))
	}))
	defer srv.Close()

	n := NewWeComNotifier(srv.URL, logger.Nop())
	if err := n.Notify(context.Background(), "report", nil); err == nil {
		t.Fatal("expected error from non-zero errcode")
	}
}

func TestNotifyImageFailureIsSoft(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"errcode": 0}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWeComNotifier(srv.URL, logger.Nop())
	img := models.ChartImage{Name: "a.png", Data: []byte{1}}
	if err := n.Notify(context.Background(), "report", []models.ChartImage{img}); err != nil {
		t.Fatalf("image failure must not fail the notify: %v", err)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	s := strings.Repeat("观", 8)
	if got := Truncate(s, 5); got != strings.Repeat("观", 5)+"..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}
