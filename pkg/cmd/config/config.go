package config

import (
	"fmt"

	"com.github.tunahansezen/kubeboot/pkg/cmd"
	cfg "com.github.tunahansezen/kubeboot/pkg/config"
	"com.github.tunahansezen/kubeboot/pkg/core"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	cConfig = "config"
)

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:   cConfig,
	Short: "Inspect configuration",
	Long:  `Inspect the kubeboot configuration`,
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			os.Exit(fmt.Sprintf("Error occurred while calling help for \"%s\"", cConfig), 1)
		}
	},
}

// viewCmd represents the config view command
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the resolved configuration",
	Long:  `Print the configuration resolved from defaults, the config file and KUBEBOOT_* variables`,
	Args:  cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		core.PreRun()
	},
	Run: func(cmd *cobra.Command, args []string) {
		out, err := cfg.View(afero.NewOsFs(), core.CfgFile)
		if err != nil {
			os.Exit(err.Error(), 1)
		}
		fmt.Print(string(out))
	},
}

func init() {
	cmd.RootCmd.AddCommand(Cmd)
	Cmd.AddCommand(viewCmd)
}
