package anchors

import (
	"context"
	"strings"

	"github.com/mjaros/chatterm/internal/api"
)

// MaxLabelLen caps stored anchor labels.
const MaxLabelLen = 120

// Row is one line of the anchor panel: a turn index with its label
// (possibly empty).
type Row struct {
	Turn  int
	Label string
}

// Service is the subset of the API client the synchronizer needs.
type Service interface {
	ListAnchors(ctx context.Context, threadID string) ([]api.Anchor, error)
	PutAnchor(ctx context.Context, threadID string, turn int, label string) error
	DeleteAnchor(ctx context.Context, threadID string, turn int) error
}

// Synchronizer maps view-derived turn indices to server-stored
// labels. It holds no cache: every panel is recomputed from the server
// so the derived turn count and the label set cannot drift apart.
type Synchronizer struct {
	svc Service
}

// New creates a synchronizer over the given anchor service.
func New(svc Service) *Synchronizer {
	return &Synchronizer{svc: svc}
}

// Panel produces one row per turn in 1..turnCount, with the server's
// label where one exists. Server anchors outside the valid range are
// ignored. The result is total and idempotent.
func (s *Synchronizer) Panel(ctx context.Context, threadID string, turnCount int) ([]Row, error) {
	if threadID == "" || turnCount <= 0 {
		return nil, nil
	}
	list, err := s.svc.ListAnchors(ctx, threadID)
	if err != nil {
		return nil, err
	}
	labels := make(map[int]string, len(list))
	for _, a := range list {
		labels[a.TurnIndex] = a.Label
	}
	rows := make([]Row, turnCount)
	for i := 1; i <= turnCount; i++ {
		rows[i-1] = Row{Turn: i, Label: labels[i]}
	}
	return rows, nil
}

// Edit applies a label edit for (threadID, turn). An empty or
// whitespace-only input deletes the anchor; anything else is truncated
// to MaxLabelLen and upserted. The caller recomputes the panel from
// scratch afterwards.
func (s *Synchronizer) Edit(ctx context.Context, threadID string, turn int, input string) error {
	label := strings.TrimSpace(input)
	if label == "" {
		return s.svc.DeleteAnchor(ctx, threadID, turn)
	}
	return s.svc.PutAnchor(ctx, threadID, turn, Truncate(label))
}

// Truncate clips a label to MaxLabelLen runes.
func Truncate(label string) string {
	runes := []rune(label)
	if len(runes) <= MaxLabelLen {
		return label
	}
	return string(runes[:MaxLabelLen])
}
