package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/absmach/fldash"
	"github.com/absmach/fldash/monitor"
	"github.com/absmach/fldash/pkg/fl"
	"github.com/absmach/fldash/pkg/sdk"
	"github.com/absmach/fldash/pkg/testutil"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatReport(t *testing.T) {
	gl := 0.25
	cases := []struct {
		desc   string
		report monitor.Report
		want   string
	}{
		{
			desc:   "nothing reported",
			report: monitor.Report{Convergence: monitor.ConvergenceSummary{Stability: monitor.Initializing}},
			want:   "epoch 0  loss n/a  workers 0  samples 0  updates 0  rate n/a  stability Initializing  best n/a",
		},
		{
			desc: "converging",
			report: monitor.Report{
				Epoch:         5,
				GlobalLoss:    &gl,
				LossDelta:     "-12.50%",
				ActiveWorkers: 2,
				TotalSamples:  250,
				GlobalUpdates: 10,
				Convergence:   monitor.ConvergenceSummary{RateDisplay: "+12.50%", Stability: monitor.Stable},
				WorkerOverview: monitor.WorkerOverview{
					Comparison: monitor.Compare(fl.WorkerLosses{{WorkerID: "w1", Loss: 0.3}, {WorkerID: "w2", Loss: 0.2}}),
				},
			},
			want: "epoch 5  loss 0.2500 (-12.50%)  workers 2  samples 250  updates 10  rate +12.50%  stability Stable  best w2 0.2000",
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, formatReport(tc.report))
		})
	}
}

func TestStatusAndSimulateCommands(t *testing.T) {
	coord := testutil.NewCoordinator(nil)
	ts := httptest.NewServer(coord.Handler())
	defer ts.Close()

	SetSDK(sdk.NewSDK(sdk.Config{CoordinatorURL: ts.URL}))
	c := fldash.DefaultConfig()
	c.Simulator.Seed = 3
	SetConfig(c)

	var out bytes.Buffer
	sim := NewSimulateCmd()
	sim.SetOut(&out)
	sim.SetErr(&out)
	sim.SetArgs([]string{"alice:10,bob:20", "--rounds", "2", "--delay", "0s"})
	require.NoError(t, sim.ExecuteContext(context.Background()))

	var summary map[string]workerSummary
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &summary), out.String())
	assert.Equal(t, 2, summary["alice"].Steps)
	assert.Zero(t, summary["bob"].Failed)
	assert.InDelta(t, 6.4, summary["bob"].FinalLoss, 1e-9)

	out.Reset()
	status := NewStatusCmd()
	status.SetOut(&out)
	status.SetArgs([]string{})
	require.NoError(t, status.ExecuteContext(context.Background()))

	var s fl.Status
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &s), out.String())
	assert.Equal(t, 2, s.CurrentEpoch)
	assert.Equal(t, []string{"alice", "bob"}, s.ActiveWorkers)
}

func TestFollowRequiresBroker(t *testing.T) {
	SetConfig(fldash.DefaultConfig())

	var out bytes.Buffer
	cmd := NewFollowCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), errNoBroker.Error())
}
