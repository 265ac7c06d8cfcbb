package cli

import (
	"github.com/absmach/fldash/pkg/sdk"
	"github.com/spf13/cobra"
)

var fsdk sdk.SDK

func SetSDK(s sdk.SDK) {
	fsdk = s
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Coordinator status",
		Long:  `Fetch one status snapshot from the training coordinator.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.Status(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
}
