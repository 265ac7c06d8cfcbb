package monitor

import (
	"time"

	"github.com/absmach/fldash/pkg/fl"
)

const DefMinInterval = 2 * time.Second

type HistoryEntry struct {
	Epoch      int       `json:"epoch"`
	GlobalLoss float64   `json:"global_loss"`
	Timestamp  time.Time `json:"timestamp"`
}

type HistoryPage struct {
	Offset  uint64         `json:"offset"`
	Limit   uint64         `json:"limit"`
	Total   uint64         `json:"total"`
	Entries []HistoryEntry `json:"entries"`
}

// HistoryLog is an append-only record of snapshots in arrival order. It keeps
// at most one entry per minimum interval regardless of how often it is offered
// snapshots. It is not safe for concurrent use.
type HistoryLog struct {
	minInterval  time.Duration
	entries      []HistoryEntry
	lastAccepted time.Time
}

func NewHistoryLog(minInterval time.Duration) *HistoryLog {
	if minInterval <= 0 {
		minInterval = DefMinInterval
	}

	return &HistoryLog{minInterval: minInterval}
}

// Accept appends the snapshot if at least the minimum interval has passed
// since the last accepted one. The first snapshot is always accepted. Epochs
// are recorded as reported, even when duplicated or out of order, and an
// absent global loss is recorded as 0.
func (h *HistoryLog) Accept(s fl.Status, now time.Time) bool {
	if len(h.entries) > 0 && now.Sub(h.lastAccepted) < h.minInterval {
		return false
	}

	var loss float64
	if s.GlobalLoss != nil {
		loss = *s.GlobalLoss
	}

	h.entries = append(h.entries, HistoryEntry{
		Epoch:      s.CurrentEpoch,
		GlobalLoss: loss,
		Timestamp:  now,
	})
	h.lastAccepted = now

	return true
}

func (h *HistoryLog) Entries() []HistoryEntry {
	return append([]HistoryEntry{}, h.entries...)
}

func (h *HistoryLog) Len() int {
	return len(h.entries)
}

func (h *HistoryLog) MinInterval() time.Duration {
	return h.minInterval
}
