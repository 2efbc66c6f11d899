// Package controller owns the client-side view state of the chat:
// the active thread id, the thread list projection, the message
// timeline, the anchor panel, and the status indicator. All remote
// I/O happens elsewhere (the TUI runs it as bubbletea commands); the
// controller exposes begin/apply pairs so every mutation runs from a
// single resumption point and stale responses can be detected
// mechanically.
package controller

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mjaros/chatterm/internal/anchors"
	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/timeline"
)

var (
	// ErrEmptyInput rejects blank submissions (validation failure,
	// a no-op for the caller).
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy rejects overlapping submissions while one is in flight.
	ErrBusy = errors.New("another request is in flight")
	// ErrNoActiveThread rejects thread-scoped operations when no
	// thread is active.
	ErrNoActiveThread = errors.New("no active thread")
)

// Recorder archives confirmed exchanges locally. Nil disables
// archiving.
type Recorder interface {
	Record(threadID string, role api.Role, text string) error
	// Forget purges the archive of a thread deleted on the server.
	Forget(threadID string) error
}

// Controller is the single owned state object for the chat view.
type Controller struct {
	activeThread string
	threads      []api.Thread
	timeline     *timeline.Timeline
	anchorRows   []anchors.Row

	status       Status
	statusDetail string

	sendBusy  bool
	imageBusy bool

	// switchSeq guards against an older, slower thread-load response
	// overwriting a newer one.
	switchSeq uint64

	pendingCmd *Command

	recorder Recorder
	log      zerolog.Logger
}

// New creates a controller with an empty view.
func New(recorder Recorder, log zerolog.Logger) *Controller {
	return &Controller{
		timeline: timeline.New(),
		status:   StatusReady,
		recorder: recorder,
		log:      log,
	}
}

// ---- view accessors ----

func (c *Controller) ActiveThread() string       { return c.activeThread }
func (c *Controller) Threads() []api.Thread      { return c.threads }
func (c *Controller) Timeline() *timeline.Timeline { return c.timeline }
func (c *Controller) AnchorRows() []anchors.Row  { return c.anchorRows }
func (c *Controller) Status() Status             { return c.status }
func (c *Controller) StatusDetail() string       { return c.statusDetail }
func (c *Controller) SendBusy() bool             { return c.sendBusy }
func (c *Controller) ImageBusy() bool            { return c.imageBusy }

// ActiveThreadInfo returns the list projection of the active thread.
func (c *Controller) ActiveThreadInfo() (api.Thread, bool) {
	for _, t := range c.threads {
		if t.ID == c.activeThread {
			return t, true
		}
	}
	return api.Thread{}, false
}

func (c *Controller) setStatus(s Status, detail string) {
	c.status = s
	c.statusDetail = detail
}

// SetStatus is for transient states driven outside the send flow
// (transcribing, uploading, synthesizing).
func (c *Controller) SetStatus(s Status, detail string) {
	c.setStatus(s, detail)
}

// ---- thread list ----

// ApplyThreadList replaces the thread list projection. When the
// active thread is present in the list its fresh title/flag are
// returned so the input controls can be refreshed.
func (c *Controller) ApplyThreadList(threads []api.Thread) (api.Thread, bool) {
	c.threads = threads
	return c.ActiveThreadInfo()
}

// ---- thread switching ----

// BeginSwitch registers intent to load a thread and returns the
// sequence token the response must carry to be applied. The active id
// is not touched yet: it is never set to a thread that failed to load.
func (c *Controller) BeginSwitch(id string) uint64 {
	c.switchSeq++
	c.log.Debug().Str("thread", id).Uint64("seq", c.switchSeq).Msg("begin switch")
	return c.switchSeq
}

// ApplySwitch applies a completed thread load. Stale responses (a
// newer switch has begun since) are dropped and report false. On
// failure the prior view is left intact.
func (c *Controller) ApplySwitch(seq uint64, id string, msgs []api.Message, err error) bool {
	if seq != c.switchSeq {
		c.log.Debug().Str("thread", id).Uint64("seq", seq).Msg("dropping stale thread load")
		return false
	}
	if err != nil {
		c.setStatus(StatusError, err.Error())
		return false
	}
	c.activeThread = id
	c.timeline.Rebuild(msgs)
	c.anchorRows = nil
	c.setStatus(StatusReady, "")
	return true
}

// ApplyCreated makes a freshly created empty thread active.
func (c *Controller) ApplyCreated(id string) {
	c.switchSeq++ // invalidate any in-flight switch
	c.activeThread = id
	c.timeline.Clear()
	c.anchorRows = nil
	c.setStatus(StatusReady, "")
}

// ApplyThreadDeleted reconciles a confirmed server-side delete. If the
// deleted thread was active, all local view state for it is cleared.
// The local archive forgets the thread either way.
func (c *Controller) ApplyThreadDeleted(id string) {
	if id == c.activeThread {
		c.switchSeq++
		c.activeThread = ""
		c.timeline.Clear()
		c.anchorRows = nil
	}
	if c.recorder != nil {
		if err := c.recorder.Forget(id); err != nil {
			c.log.Warn().Err(err).Str("thread", id).Msg("history purge failed")
		}
	}
}

// RequireActiveThread validates thread-scoped operations
// (rename, use_memory toggle).
func (c *Controller) RequireActiveThread() (string, error) {
	if c.activeThread == "" {
		return "", ErrNoActiveThread
	}
	return c.activeThread, nil
}

// ---- anchors ----

// ApplyAnchors replaces the anchor panel, always recomputed from
// scratch against the current turn count.
func (c *Controller) ApplyAnchors(rows []anchors.Row) {
	c.anchorRows = rows
}

// ---- send flow ----

// SendJob carries an optimistic submission from dispatch to
// resolution.
type SendJob struct {
	PlaceholderID string
	Request       api.SendRequest
}

// BeginSend validates and optimistically applies a user submission:
// the user message renders immediately with its derived turn index, a
// typing placeholder follows it, and the send control goes busy.
func (c *Controller) BeginSend(text string, web, useMemory bool) (*SendJob, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if c.sendBusy || c.timeline.HasPending() {
		return nil, ErrBusy
	}

	c.timeline.AppendUser(text)
	placeholder, err := c.timeline.BeginPending()
	if err != nil {
		return nil, err
	}
	c.sendBusy = true
	c.setStatus(StatusThinking, "")

	req := api.SendRequest{Text: text, Web: web, UseMemory: useMemory}
	if c.activeThread != "" {
		id := c.activeThread
		req.ThreadID = &id
	}
	return &SendJob{PlaceholderID: placeholder, Request: req}, nil
}

// ApplySendResult reconciles a completed send. Success swaps the
// placeholder for the reply (adopting a server-created thread id when
// none was active); any failure removes the placeholder and appends a
// single error-marked entry. Either way the send control is
// re-enabled.
func (c *Controller) ApplySendResult(job *SendJob, res *api.SendResult, err error) {
	c.sendBusy = false
	if err != nil {
		if ferr := c.timeline.Fail(job.PlaceholderID, err); ferr != nil {
			c.log.Warn().Err(ferr).Msg("send failed with no placeholder to reconcile")
		}
		c.setStatus(StatusError, err.Error())
		return
	}
	if c.activeThread == "" || res.Created {
		c.activeThread = res.ThreadID
	}
	if rerr := c.timeline.Resolve(job.PlaceholderID, res.Reply); rerr != nil {
		c.log.Warn().Err(rerr).Msg("reply arrived with no placeholder to resolve")
	}
	c.record(api.RoleUser, job.Request.Text)
	c.record(api.RoleAssistant, res.Reply)
	c.setStatus(StatusReady, "")
}

// LastReply returns the newest confirmed assistant text entry, for
// text-to-speech.
func (c *Controller) LastReply() (string, bool) {
	entries := c.timeline.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Role == api.RoleAssistant && e.Kind == api.KindText &&
			e.State == timeline.StateConfirmed && !e.Failed {
			return e.Text, true
		}
	}
	return "", false
}

// ---- image flow ----

// ImageJob carries an image generation from dispatch to resolution.
// There is no typing placeholder: the only transient state is the
// disabled generate control and the busy status.
type ImageJob struct {
	ThreadID *string
	Prompt   string
}

// BeginImage validates and dispatches an image generation.
func (c *Controller) BeginImage(prompt string) (*ImageJob, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyInput
	}
	if c.imageBusy {
		return nil, ErrBusy
	}
	c.imageBusy = true
	c.setStatus(StatusGeneratingImage, "")

	job := &ImageJob{Prompt: prompt}
	if c.activeThread != "" {
		id := c.activeThread
		job.ThreadID = &id
	}
	return job, nil
}

// ApplyImageResult reconciles a completed image generation. The image
// entry is appended only on success.
func (c *Controller) ApplyImageResult(job *ImageJob, res *api.ImageResult, err error) {
	c.imageBusy = false
	if err != nil {
		c.setStatus(StatusError, err.Error())
		return
	}
	if c.activeThread == "" || res.Created {
		c.activeThread = res.ThreadID
	}
	c.timeline.AppendImage(res.URL, res.Prompt)
	c.setStatus(StatusReady, "")
}

func (c *Controller) record(role api.Role, text string) {
	if c.recorder == nil || c.activeThread == "" || text == "" {
		return
	}
	if err := c.recorder.Record(c.activeThread, role, text); err != nil {
		c.log.Warn().Err(err).Msg("history record failed")
	}
}

