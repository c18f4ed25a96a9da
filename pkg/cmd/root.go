package cmd

import (
	"context"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/core"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"github.com/spf13/cobra"
)

const (
	versionTemplate = `{{printf "kubeboot v%s" .Version}}
`
	fDebug      = "debug"
	fTrace      = "trace"
	fsDebug     = "d"
	fConfig     = "config"
	fRemoteNode = "remote"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:          constant.AppName,
	Short:        "kubeboot single node kubernetes provisioner",
	Long:         `kubeboot prepares a Fedora or Ubuntu/Debian host and bootstraps a kubernetes master or worker on it`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute(ctx context.Context, version string) {
	RootCmd.Version = version
	RootCmd.InitDefaultVersionFlag()
	RootCmd.Flag("version").Usage = "version for kubeboot"
	err := RootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(err.Error(), 1)
	}
}

func init() {
	RootCmd.SetVersionTemplate(versionTemplate)
	RootCmd.CompletionOptions.HiddenDefaultCmd = true
	RootCmd.CompletionOptions.DisableDescriptions = true

	RootCmd.PersistentFlags().BoolVarP(&core.Debug, fDebug, fsDebug, false, "debug logging for kubeboot")
	RootCmd.PersistentFlags().BoolVarP(&core.Trace, fTrace, "", false, "trace logging for kubeboot")
	RootCmd.PersistentFlags().StringVarP(&core.CfgFile, fConfig, "", "",
		"config file (default "+constant.DefaultCfgFile+")")
	RootCmd.PersistentFlags().IPVarP(&core.RemoteNodeIP, fRemoteNode, "", nil,
		"if node defined, provisioning is done over SSH on that node")
}
