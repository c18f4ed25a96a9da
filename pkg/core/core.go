package core

import (
	"context"
	"net"
	stdos "os"

	cfg "com.github.tunahansezen/kubeboot/pkg/config"
	"com.github.tunahansezen/kubeboot/pkg/config/model"
	conn "com.github.tunahansezen/kubeboot/pkg/connection"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var (
	CfgFile      string
	RemoteNodeIP net.IP
)

func PreRun() {
	toggleDebug()
}

// Run provisions the local host, or the remote one when --remote is given, for role.
func Run(ctx context.Context, role Role) error {
	config, err := cfg.Load(afero.NewOsFs(), CfgFile)
	if err != nil {
		return err
	}
	host, remote, err := newHost(config)
	if err != nil {
		return err
	}
	w := NewWorkflow(host, config)
	if !remote {
		w.User = stdos.Getenv("SUDO_USER")
	}
	defer func() {
		if err := w.Metrics.WriteTextfile(config.Metrics.Textfile); err != nil {
			log.Warnf("Metrics could not be written: %v", err)
		}
	}()
	return w.Run(ctx, role)
}

func newHost(config model.Config) (*os.Host, bool, error) {
	ip := RemoteNodeIP
	if len(ip) == 0 {
		ip = config.Remote.Host
	}
	if len(ip) == 0 {
		return os.NewHost(os.NewLocalExecutor(), afero.NewOsFs()), false, nil
	}
	node := &conn.Node{
		IP:                ip,
		SSHUser:           config.Remote.User,
		SSHPass:           config.Remote.Password,
		SSHPrivateKeyPath: config.Remote.PrivateKeyPath,
	}
	if node.SSHUser != "root" {
		return nil, true, errors.Errorf("remote user must be root, got \"%s\"", node.SSHUser)
	}
	client, err := conn.Connect(node, util.IsInteractive())
	if err != nil {
		return nil, true, err
	}
	os.RegisterExitHook(client.Close)
	log.Infof("Provisioning remote node %s", node)
	return os.NewHost(client.Executor(), client.Fs()), true, nil
}
