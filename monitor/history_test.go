package monitor_test

import (
	"testing"
	"time"

	"github.com/absmach/fldash/monitor"
	"github.com/absmach/fldash/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loss(v float64) *float64 {
	return &v
}

func TestHistoryAcceptThrottles(t *testing.T) {
	t.Parallel()

	h := monitor.NewHistoryLog(2 * time.Second)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, h.Accept(fl.Status{CurrentEpoch: 1, GlobalLoss: loss(2)}, start))
	assert.False(t, h.Accept(fl.Status{CurrentEpoch: 2, GlobalLoss: loss(1.5)}, start.Add(500*time.Millisecond)))
	assert.True(t, h.Accept(fl.Status{CurrentEpoch: 3, GlobalLoss: loss(1)}, start.Add(3*time.Second)))

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Epoch)
	assert.Equal(t, 3, entries[1].Epoch)
	assert.Equal(t, start.Add(3*time.Second), entries[1].Timestamp)
}

func TestHistoryAccept(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		status  fl.Status
		want    monitor.HistoryEntry
		prepare func(h *monitor.HistoryLog, now time.Time)
		accept  bool
	}{
		{
			desc:   "first snapshot is always kept",
			status: fl.Status{CurrentEpoch: 0, GlobalLoss: loss(4)},
			want:   monitor.HistoryEntry{Epoch: 0, GlobalLoss: 4},
			accept: true,
		},
		{
			desc:   "absent loss recorded as zero",
			status: fl.Status{CurrentEpoch: 3},
			want:   monitor.HistoryEntry{Epoch: 3, GlobalLoss: 0},
			accept: true,
		},
		{
			desc:   "repeated epoch is still recorded",
			status: fl.Status{CurrentEpoch: 5, GlobalLoss: loss(1)},
			want:   monitor.HistoryEntry{Epoch: 5, GlobalLoss: 1},
			prepare: func(h *monitor.HistoryLog, now time.Time) {
				h.Accept(fl.Status{CurrentEpoch: 5, GlobalLoss: loss(1)}, now.Add(-time.Minute))
			},
			accept: true,
		},
		{
			desc:   "exactly one interval later is kept",
			status: fl.Status{CurrentEpoch: 2, GlobalLoss: loss(1)},
			want:   monitor.HistoryEntry{Epoch: 2, GlobalLoss: 1},
			prepare: func(h *monitor.HistoryLog, now time.Time) {
				h.Accept(fl.Status{CurrentEpoch: 1, GlobalLoss: loss(2)}, now.Add(-2*time.Second))
			},
			accept: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			h := monitor.NewHistoryLog(2 * time.Second)
			if tc.prepare != nil {
				tc.prepare(h, now)
			}
			before := h.Len()

			assert.Equal(t, tc.accept, h.Accept(tc.status, now))
			require.Equal(t, before+1, h.Len())

			got := h.Entries()[h.Len()-1]
			tc.want.Timestamp = now
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHistoryEntriesIsCopy(t *testing.T) {
	t.Parallel()

	h := monitor.NewHistoryLog(time.Second)
	h.Accept(fl.Status{CurrentEpoch: 1, GlobalLoss: loss(1)}, time.Now())

	entries := h.Entries()
	entries[0].Epoch = 99

	assert.Equal(t, 1, h.Entries()[0].Epoch)
}

func TestNewHistoryLogDefaultInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, monitor.DefMinInterval, monitor.NewHistoryLog(0).MinInterval())
	assert.Equal(t, monitor.DefMinInterval, monitor.NewHistoryLog(-time.Second).MinInterval())
	assert.Equal(t, 5*time.Second, monitor.NewHistoryLog(5*time.Second).MinInterval())
}
