package controller

// Status is the user-visible status indicator.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusGeneratingImage
	StatusTranscribing
	StatusSynthesizing
	StatusUploading
	StatusBusy
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusThinking:
		return "thinking…"
	case StatusGeneratingImage:
		return "generating image…"
	case StatusTranscribing:
		return "transcribing…"
	case StatusSynthesizing:
		return "synthesizing…"
	case StatusUploading:
		return "uploading…"
	case StatusBusy:
		return "working…"
	case StatusError:
		return "error"
	}
	return "unknown"
}
