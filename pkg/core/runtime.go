package core

import (
	"context"
	"regexp"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var systemdCgroupRegex = regexp.MustCompile(`(?m)^(\s*)SystemdCgroup\s*=\s*false`)

// InstallRuntime installs containerd and rewrites its config from the packaged defaults.
// Manual edits of config.toml are overwritten, the previous file is kept as a backup.
func (w *Workflow) InstallRuntime(ctx context.Context) error {
	util.UpdateSpinner("Installing containerd")
	if err := w.Host.InstallPackages(ctx, []string{"containerd"}); err != nil {
		return err
	}
	util.UpdateSpinner("Configuring containerd")
	defaults, err := w.Host.Run(ctx, "containerd config default")
	if err != nil {
		return errors.Wrap(err, "generating default containerd config")
	}
	patched, found := PatchSystemdCgroup(defaults)
	if !found {
		log.Warnf("SystemdCgroup setting was not found in the default containerd config")
	}
	if !strings.HasSuffix(patched, "\n") {
		patched += "\n"
	}
	if _, err = w.Host.WriteFile(constant.ContainerdConfigPath, []byte(patched), 0644); err != nil {
		return err
	}
	if err = w.Host.ChangeServiceStatus(ctx, "containerd", "restart"); err != nil {
		return err
	}
	return w.Host.ChangeServiceStatus(ctx, "containerd", "enable")
}

// PatchSystemdCgroup switches the runc cgroup driver to systemd. found is false when the setting is absent.
func PatchSystemdCgroup(config string) (patched string, found bool) {
	if !systemdCgroupRegex.MatchString(config) {
		return config, regexp.MustCompile(`(?m)^\s*SystemdCgroup\s*=\s*true`).MatchString(config)
	}
	return systemdCgroupRegex.ReplaceAllString(config, "${1}SystemdCgroup = true"), true
}
