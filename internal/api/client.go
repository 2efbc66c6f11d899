package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 120 * time.Second

// Client talks to the assistant server. All state lives server-side;
// the client is a thin request/response wrapper with no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a client for the given server base URL.
func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: log,
	}
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out (when out is non-nil). Non-2xx responses become
// *APIError when the body carries a {detail}, otherwise *ProtocolError.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeFailure(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProtocolError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return nil
}

// decodeFailure distinguishes application failures (parsable {detail})
// from protocol failures (anything else).
func decodeFailure(status int, raw []byte) error {
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		return &APIError{Status: status, Detail: detail.Detail}
	}
	return &ProtocolError{Status: status, Body: strings.TrimSpace(string(raw))}
}

// ---- Threads ----

// ListThreads returns the server's thread list.
func (c *Client) ListThreads(ctx context.Context) ([]Thread, error) {
	var out []Thread
	if err := c.doJSON(ctx, http.MethodGet, "/api/threads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateThread asks the server for a new empty thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var out struct {
		ThreadID string `json:"thread_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/new_thread", nil, &out); err != nil {
		return "", err
	}
	if out.ThreadID == "" {
		return "", &ProtocolError{Status: http.StatusOK, Body: "missing thread_id"}
	}
	return out.ThreadID, nil
}

// LoadThread fetches the full ordered message history for a thread.
// Image message content arrives serialized and is decoded here.
func (c *Client) LoadThread(ctx context.Context, id string) ([]Message, error) {
	var out []Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/thread/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].decodeImage()
	}
	return out, nil
}

// DeleteThread removes a thread and its history.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/thread/"+url.PathEscape(id), nil, nil)
}

// RenameThread sets a thread's title.
func (c *Client) RenameThread(ctx context.Context, id, title string) error {
	payload := map[string]string{"thread_id": id, "title": title}
	return c.doJSON(ctx, http.MethodPost, "/api/rename_thread", payload, nil)
}

// SetUseMemory persists the per-thread memory flag consumed by the
// assistant service.
func (c *Client) SetUseMemory(ctx context.Context, id string, useMemory bool) error {
	payload := map[string]any{"thread_id": id, "use_memory": useMemory}
	return c.doJSON(ctx, http.MethodPost, "/api/thread/use_memory", payload, nil)
}

// ---- Anchors ----

// ListAnchors returns all label anchors for a thread.
func (c *Client) ListAnchors(ctx context.Context, threadID string) ([]Anchor, error) {
	var out []Anchor
	if err := c.doJSON(ctx, http.MethodGet, "/api/anchors/"+url.PathEscape(threadID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutAnchor upserts a label keyed by (thread_id, turn_index).
func (c *Client) PutAnchor(ctx context.Context, threadID string, turn int, label string) error {
	payload := map[string]any{"thread_id": threadID, "turn_index": turn, "label": label}
	return c.doJSON(ctx, http.MethodPost, "/api/anchors", payload, nil)
}

// DeleteAnchor removes the label for (thread_id, turn_index).
func (c *Client) DeleteAnchor(ctx context.Context, threadID string, turn int) error {
	payload := map[string]any{"thread_id": threadID, "turn_index": turn}
	return c.doJSON(ctx, http.MethodDelete, "/api/anchors", payload, nil)
}

// ---- Completion ----

// Send submits a user message. A nil req.ThreadID creates a thread
// implicitly; the result's Created flag reports that case.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	var out SendResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/send", req, &out); err != nil {
		return nil, err
	}
	if out.ThreadID == "" {
		return nil, &ProtocolError{Status: http.StatusOK, Body: "missing thread_id in reply"}
	}
	out.Created = req.ThreadID == nil
	return &out, nil
}

// GenerateImage requests an image for the prompt. A nil threadID
// creates a thread implicitly, mirrored by the Created flag.
func (c *Client) GenerateImage(ctx context.Context, threadID *string, prompt string) (*ImageResult, error) {
	payload := map[string]any{"thread_id": threadID, "prompt": prompt}
	var out ImageResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/image", payload, &out); err != nil {
		return nil, err
	}
	if out.ThreadID == "" {
		return nil, &ProtocolError{Status: http.StatusOK, Body: "missing thread_id in reply"}
	}
	out.Created = threadID == nil
	return &out, nil
}

// ---- Memory facts ----

// ListMemory returns memory facts, active or inactive.
func (c *Client) ListMemory(ctx context.Context, active bool) ([]MemoryFact, error) {
	flag := "0"
	if active {
		flag = "1"
	}
	var out []MemoryFact
	if err := c.doJSON(ctx, http.MethodGet, "/api/memory/list?active="+flag, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMemory stores a new fact. Key may be nil for keyless facts.
func (c *Client) AddMemory(ctx context.Context, key *string, value, scope string) error {
	payload := map[string]any{"key": key, "value": value, "scope": scope}
	return c.doJSON(ctx, http.MethodPost, "/api/memory/add", payload, nil)
}

// ForgetMemory deactivates a fact.
func (c *Client) ForgetMemory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, "/api/memory/forget", map[string]int64{"id": id}, nil)
}

// RestoreMemory reactivates a fact.
func (c *Client) RestoreMemory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, "/api/memory/restore", map[string]int64{"id": id}, nil)
}

// ---- Files ----

// UploadFiles submits the given local files as a single multipart
// batch and returns the per-file results.
func (c *Client) UploadFiles(ctx context.Context, paths []string) ([]UploadedFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("add %s to upload: %w", p, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Files []UploadedFile `json:"files"`
	}
	if err := c.doMultipart(ctx, "/api/files/upload", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// ListFiles returns the server's asset list.
func (c *Client) ListFiles(ctx context.Context) ([]FileInfo, error) {
	var out []FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFile removes an uploaded asset.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, nil)
}

// ExtractText runs server-side text extraction for an asset.
func (c *Client) ExtractText(ctx context.Context, id string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id)+"/text", nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// OCR runs server-side OCR for an asset with the given language spec
// (e.g. "pol+eng").
func (c *Client) OCR(ctx context.Context, id, lang string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	path := "/api/files/" + url.PathEscape(id) + "/ocr?lang=" + url.QueryEscape(lang)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// ---- Speech ----

// Transcribe submits a recorded audio file and returns the recognized
// text, which may be empty.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err == nil {
		_, err = io.Copy(part, f)
	}
	if err != nil {
		return "", fmt.Errorf("prepare recording upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := c.doMultipart(ctx, "/api/transcribe", mw.FormDataContentType(), &buf, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Synthesize converts text to speech and returns the raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "voice": voice})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeFailure(resp.StatusCode, raw)
	}
	return raw, nil
}

// Voices lists available synthesis voices.
func (c *Client) Voices(ctx context.Context) (*VoiceList, error) {
	var out VoiceList
	if err := c.doJSON(ctx, http.MethodGet, "/api/voices", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Models lists available completion models.
func (c *Client) Models(ctx context.Context) (*ModelList, error) {
	var out ModelList
	if err := c.doJSON(ctx, http.MethodGet, "/api/models", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doMultipart posts a prepared multipart body and decodes the JSON
// response into out.
func (c *Client) doMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Int("bytes", len(raw)).Msg("multipart upload")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeFailure(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProtocolError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return nil
}
