package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zerolog.Nop())
}

func TestLoadThreadDecodesImageContent(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/thread/t1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		msgs := []map[string]string{
			{"role": "user", "kind": "text", "content": "draw a cat"},
			{"role": "assistant", "kind": "image", "content": `{"url":"/files/cat.png","prompt":"a cat"}`},
		}
		json.NewEncoder(w).Encode(msgs)
	}))

	msgs, err := client.LoadThread(context.Background(), "t1")
	if err != nil {
		t.Fatalf("LoadThread failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Image != nil {
		t.Error("text message should not decode an image")
	}
	if msgs[1].Image == nil {
		t.Fatal("image message content was not decoded")
	}
	if msgs[1].Image.URL != "/files/cat.png" || msgs[1].Image.Prompt != "a cat" {
		t.Errorf("decoded image mismatch: %+v", msgs[1].Image)
	}
}

func TestSendImplicitThreadCreation(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ThreadID != nil {
			t.Errorf("expected nil thread_id, got %v", *req.ThreadID)
		}
		json.NewEncoder(w).Encode(map[string]string{"thread_id": "fresh", "reply": "hi"})
	}))

	res, err := client.Send(context.Background(), SendRequest{Text: "Hello"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !res.Created {
		t.Error("expected Created=true when no thread id was supplied")
	}
	if res.ThreadID != "fresh" || res.Reply != "hi" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSendExistingThreadNotMarkedCreated(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"thread_id": "t9", "reply": "ok"})
	}))

	id := "t9"
	res, err := client.Send(context.Background(), SendRequest{ThreadID: &id, Text: "again"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Created {
		t.Error("expected Created=false for an existing thread")
	}
}

func TestSendApplicationFailure(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "upstream model unavailable"})
	}))

	_, err := client.Send(context.Background(), SendRequest{Text: "Hello"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if ae.Detail != "upstream model unavailable" {
		t.Errorf("unexpected detail: %q", ae.Detail)
	}
}

func TestSendProtocolFailureKeepsStatusAndBody(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>gateway exploded</html>"))
	}))

	_, err := client.Send(context.Background(), SendRequest{Text: "Hello"})
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if pe.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", pe.Status)
	}
	if pe.Body != "<html>gateway exploded</html>" {
		t.Errorf("raw body not preserved: %q", pe.Body)
	}
}

func TestAnchorRoundTrip(t *testing.T) {
	var anchors []Anchor
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/anchors":
			var a Anchor
			json.NewDecoder(r.Body).Decode(&a)
			anchors = append(anchors[:0], a)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/anchors":
			anchors = anchors[:0]
			w.WriteHeader(http.StatusOK)
		default:
			json.NewEncoder(w).Encode(anchors)
		}
	}))

	ctx := context.Background()
	if err := client.PutAnchor(ctx, "t1", 2, "Pricing discussion"); err != nil {
		t.Fatalf("PutAnchor failed: %v", err)
	}
	got, err := client.ListAnchors(ctx, "t1")
	if err != nil {
		t.Fatalf("ListAnchors failed: %v", err)
	}
	if len(got) != 1 || got[0].TurnIndex != 2 || got[0].Label != "Pricing discussion" {
		t.Fatalf("unexpected anchors after set: %+v", got)
	}

	if err := client.DeleteAnchor(ctx, "t1", 2); err != nil {
		t.Fatalf("DeleteAnchor failed: %v", err)
	}
	got, err = client.ListAnchors(ctx, "t1")
	if err != nil {
		t.Fatalf("ListAnchors failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no anchors after unset, got %+v", got)
	}
}

func TestUploadFilesMultipartBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.png")
	os.WriteFile(a, []byte("alpha"), 0o644)
	os.WriteFile(b, []byte("beta"), 0o644)

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Fatalf("expected one batch of 2 files, got %d", len(files))
		}
		json.NewEncoder(w).Encode(map[string]any{"files": []UploadedFile{
			{Name: "a.txt", URL: "/files/a.txt", Mime: "text/plain"},
			{Name: "b.png", URL: "/files/b.png", Mime: "image/png"},
		}})
	}))

	got, err := client.UploadFiles(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("UploadFiles failed: %v", err)
	}
	if len(got) != 2 || got[1].Mime != "image/png" {
		t.Errorf("unexpected upload result: %+v", got)
	}
}

func TestTranscribeReturnsText(t *testing.T) {
	dir := t.TempDir()
	rec := filepath.Join(dir, "audio.wav")
	os.WriteFile(rec, []byte("RIFFdata"), 0o644)

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transcribe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))

	text, err := client.Transcribe(context.Background(), rec)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("unexpected transcript %q", text)
	}
}
