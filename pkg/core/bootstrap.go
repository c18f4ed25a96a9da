package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/kube"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/path"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Bootstrap runs kubeadm init once. The whole output goes to the init log.
func (w *Workflow) Bootstrap(ctx context.Context) error {
	logFile := w.Artifacts.InitLog()
	if err := w.Host.Fs.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(logFile))
	}
	f, err := w.Host.Fs.Create(logFile)
	if err != nil {
		return errors.Wrapf(err, "creating %s", logFile)
	}
	defer f.Close()

	command := kube.InitCommand(w.ip, w.Config.Kubernetes.PodNetworkCidr)
	_, _ = fmt.Fprintf(f, "# kubeboot run %s at %s\n# %s\n", w.RunID, w.now().Format("2006-01-02 15:04:05"), command)
	log.Debugf("Running \"%s\", output is written to %s", command, logFile)
	if err = w.Host.Exec.Stream(ctx, command, f); err != nil {
		var cmdErr *os.CommandError
		if errors.As(err, &cmdErr) {
			if line := util.GetLastNonEmptyLine(cmdErr.Output); line != "" {
				log.Errorf("kubeadm init: %s", line)
			}
		}
		return errors.Wrapf(err, "kubeadm init failed, see %s", logFile)
	}
	return nil
}

// Reset removes the existing control plane so that a fresh bootstrap can follow.
func (w *Workflow) Reset(ctx context.Context) error {
	util.UpdateSpinner("Stopping kubelet")
	if err := w.Host.ChangeServiceStatus(ctx, "kubelet", "stop"); err != nil {
		return err
	}
	util.UpdateSpinner("Running kubeadm reset")
	if _, err := w.Host.Run(ctx, "kubeadm reset -f"); err != nil {
		return errors.Wrap(err, "kubeadm reset")
	}
	util.UpdateSpinner("Removing cluster state")
	if _, err := w.Host.Run(ctx, fmt.Sprintf("rm -rf %s", strings.Join(constant.ResetDirs, " "))); err != nil {
		return errors.Wrap(err, "removing cluster state")
	}
	kubeConfigs := append(append([]string{}, constant.KubeConfFiles...), constant.RootKubeConfig)
	if w.User != "" && w.User != "root" {
		home, _, err := w.Host.UserHome(ctx, w.User)
		if err != nil {
			log.Warnf("Kubeconfig of %s is not removed: %v", w.User, err)
		} else {
			kubeConfigs = append(kubeConfigs, path.KubeConfig(home))
		}
	}
	if _, err := w.Host.Run(ctx, fmt.Sprintf("rm -f %s", strings.Join(kubeConfigs, " "))); err != nil {
		return errors.Wrap(err, "removing kubeconfig files")
	}
	util.UpdateSpinner("Flushing iptables nat table")
	if _, err := w.Host.Run(ctx, "iptables -t nat -F"); err != nil {
		return errors.Wrap(err, "flushing iptables nat table")
	}
	util.UpdateSpinner("Restarting containerd")
	return w.Host.ChangeServiceStatus(ctx, "containerd", "restart")
}
