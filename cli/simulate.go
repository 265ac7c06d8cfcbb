package cli

import (
	"time"

	"github.com/absmach/fldash"
	"github.com/absmach/fldash/simulator"
	"github.com/spf13/cobra"
)

func NewSimulateCmd() *cobra.Command {
	var (
		rounds int
		delay  time.Duration
		extra  int
	)

	cmd := &cobra.Command{
		Use:   "simulate [workers]",
		Short: "Simulate training workers",
		Long: `Register synthetic workers with the coordinator and submit decaying
losses for a number of rounds.

Examples:
  # Three default workers for ten rounds
  fldash-cli simulate

  # Two named workers plus two generated ones, no delay
  fldash-cli simulate alice:100,bob:80 --extra 2 --delay 0s`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			sc := cfg.Simulator
			if len(args) == 1 {
				sc.Workers = args[0]
			}
			if cmd.Flags().Changed("rounds") {
				sc.Rounds = rounds
			}
			if cmd.Flags().Changed("extra") {
				sc.ExtraWorkers = extra
			}
			stepDelay := fldash.Duration(sc.StepDelay)
			if cmd.Flags().Changed("delay") {
				stepDelay = delay
			}

			workers, err := simulator.BuildWorkers(simulator.Config{
				Workers:      sc.Workers,
				ExtraWorkers: sc.ExtraWorkers,
				Decay:        sc.Decay,
				InitialLoss:  sc.InitialLoss,
				Seed:         sc.Seed,
			}, fsdk, logger)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			results, err := simulator.NewDriver(workers, sc.Rounds, stepDelay, logger).Run(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summarize(results))
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", simulator.DefRounds, "Number of training rounds")
	cmd.Flags().DurationVar(&delay, "delay", simulator.DefStepDelay, "Delay after each worker step")
	cmd.Flags().IntVar(&extra, "extra", 0, "Number of extra workers with generated names")

	return cmd
}

type workerSummary struct {
	Steps     int     `json:"steps"`
	Failed    int     `json:"failed"`
	FinalLoss float64 `json:"final_loss"`
}

func summarize(results []simulator.StepResult) map[string]workerSummary {
	out := make(map[string]workerSummary)
	for _, r := range results {
		s := out[r.WorkerID]
		s.Steps++
		if !r.Ack.OK() {
			s.Failed++
		}
		s.FinalLoss = r.Loss
		out[r.WorkerID] = s
	}

	return out
}
