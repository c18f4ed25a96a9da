package core

import (
	"context"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/path"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PublishKubeconfig copies admin.conf to root's kubeconfig and to the invoking user's one.
func (w *Workflow) PublishKubeconfig(ctx context.Context) error {
	if !w.Host.FileExists(constant.KubeAdminConfPath) {
		return errors.Errorf("%s does not exist. The existing cluster is incomplete, run again and choose reset",
			constant.KubeAdminConfPath)
	}
	w.kubeConfigs = nil
	if _, err := w.Host.CopyFile(constant.KubeAdminConfPath, constant.RootKubeConfig, 0600); err != nil {
		return err
	}
	w.kubeConfigs = append(w.kubeConfigs, constant.RootKubeConfig)
	if w.User == "" || w.User == "root" {
		return nil
	}
	home, owner, err := w.Host.UserHome(ctx, w.User)
	if err != nil {
		return err
	}
	userConfig := path.KubeConfig(home)
	if _, err = w.Host.CopyFile(constant.KubeAdminConfPath, userConfig, 0600); err != nil {
		return err
	}
	if err = w.Host.Chown(userConfig, owner); err != nil {
		return err
	}
	log.Debugf("Kubeconfig is copied to %s", userConfig)
	w.kubeConfigs = append(w.kubeConfigs, userConfig)
	return nil
}
