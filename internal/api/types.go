package api

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind identifies the payload shape of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Thread is the server's projection of a conversation.
type Thread struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UseMemory bool   `json:"use_memory"`
}

// Message is a single confirmed message in a thread's history.
// For Kind=="image" the server stores Content as a JSON-serialized
// {url, prompt} structure; Image holds the decoded form.
type Message struct {
	Role    Role   `json:"role"`
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
	Image   *ImageContent
}

// ImageContent is the decoded content of an image message.
type ImageContent struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// decodeImage populates Image for image messages whose content is the
// serialized structure. Undecodable content is left as-is; the caller
// renders it as plain text.
func (m *Message) decodeImage() {
	if m.Kind != KindImage || m.Image != nil {
		return
	}
	var img ImageContent
	if err := json.Unmarshal([]byte(m.Content), &img); err == nil && img.URL != "" {
		m.Image = &img
	}
}

// Anchor is a user-assigned label attached to a turn index, owned by
// the server and keyed by (thread_id, turn_index).
type Anchor struct {
	ThreadID  string `json:"thread_id"`
	TurnIndex int    `json:"turn_index"`
	Label     string `json:"label"`
}

// SendRequest is the payload for a chat completion request. A nil
// ThreadID asks the server to create a thread implicitly.
type SendRequest struct {
	ThreadID  *string `json:"thread_id"`
	Text      string  `json:"text"`
	Web       bool    `json:"web"`
	UseMemory bool    `json:"use_memory"`
}

// SendResult is a confirmed assistant reply. Created reports whether
// the server minted a new thread for this exchange, so callers cannot
// forget to adopt the returned id.
type SendResult struct {
	ThreadID string `json:"thread_id"`
	Reply    string `json:"reply"`
	Created  bool   `json:"-"`
}

// ImageResult is a confirmed image generation.
type ImageResult struct {
	ThreadID string `json:"thread_id"`
	URL      string `json:"url"`
	Prompt   string `json:"prompt"`
	Created  bool   `json:"-"`
}

// MemoryFact is a persisted memory item.
type MemoryFact struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Scope     string `json:"scope"`
	CreatedAt string `json:"created_at"`
}

// FileInfo describes an uploaded asset.
type FileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	URL  string `json:"url"`
}

// UploadedFile is the per-file result of an upload batch.
type UploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Mime string `json:"mime"`
}

// VoiceList is the synthesis voice inventory.
type VoiceList struct {
	Voices  []string `json:"voices"`
	Default string   `json:"default"`
}

// ModelList is the completion model inventory.
type ModelList struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}
