package run

import (
	"com.github.tunahansezen/kubeboot/pkg/cmd"
	"com.github.tunahansezen/kubeboot/pkg/core"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"github.com/spf13/cobra"
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:       "run <master|worker>",
	Short:     "Provision this node",
	Long:      `Prepare the host and bootstrap a kubernetes master, or prepare a worker and join it when a join command is configured`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(core.RoleMaster), string(core.RoleWorker)},
	PreRun: func(cmd *cobra.Command, args []string) {
		core.PreRun()
	},
	Run: func(cmd *cobra.Command, args []string) {
		role, err := core.ParseRole(args[0])
		if err != nil {
			os.Exit(err.Error(), 1)
		}
		if err = core.Run(cmd.Context(), role); err != nil {
			os.Exit(err.Error(), os.ExitCode(err))
		}
	},
}

func init() {
	cmd.RootCmd.AddCommand(Cmd)
}
