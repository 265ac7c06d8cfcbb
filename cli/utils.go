package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/absmach/fldash/monitor"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
)

const absent = "n/a"

func logJSONCmd(cmd cobra.Command, iList ...any) {
	for _, i := range iList {
		m, err := json.Marshal(i)
		if err != nil {
			logErrorCmd(cmd, err)

			return
		}

		pj, err := prettyjson.Format(m)
		if err != nil {
			logErrorCmd(cmd, err)

			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
	}
}

func logUsageCmd(cmd cobra.Command, u string) {
	fmt.Fprintf(cmd.OutOrStdout(), color.YellowString("\nusage: %s\n\n"), u)
}

func logErrorCmd(cmd cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	boldRed.Fprint(cmd.ErrOrStderr(), "\nerror: ")

	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n", color.RedString(err.Error()))
}

func logSuccessCmd(cmd cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", color.BlueString(msg))
}

// formatReport renders one refresh as a single status line. Values the
// coordinator has not reported yet are shown as n/a.
func formatReport(r monitor.Report) string {
	loss := absent
	if r.GlobalLoss != nil {
		loss = fmt.Sprintf("%.4f", *r.GlobalLoss)
	}
	if r.LossDelta != "" {
		loss += " (" + r.LossDelta + ")"
	}

	rate := r.Convergence.RateDisplay
	if rate == "" {
		rate = absent
	}

	best := absent
	if r.Comparison.Best != nil {
		best = fmt.Sprintf("%s %.4f", r.Comparison.Best.WorkerID, r.Comparison.Best.Loss)
	}

	parts := []string{
		fmt.Sprintf("epoch %d", r.Epoch),
		"loss " + loss,
		fmt.Sprintf("workers %d", r.ActiveWorkers),
		fmt.Sprintf("samples %d", r.TotalSamples),
		fmt.Sprintf("updates %d", r.GlobalUpdates),
		"rate " + rate,
		"stability " + stabilityColor(r.Convergence.Stability),
		"best " + best,
	}

	return strings.Join(parts, "  ")
}

func stabilityColor(s monitor.Stability) string {
	switch s {
	case monitor.Stable:
		return color.GreenString(string(s))
	case monitor.Unstable:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
