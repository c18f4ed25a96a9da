package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/config/templates"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var selinuxEnforcingRegex = regexp.MustCompile(`(?m)^SELINUX=enforcing[ \t]*$`)

// Preflight brings the host to the state kubeadm expects. Every sub-step can be run again safely.
func (w *Workflow) Preflight(ctx context.Context, role Role) error {
	if err := w.disableSwap(ctx); err != nil {
		return err
	}
	if w.Host.Installer == os.Dnf {
		if err := w.disableSelinux(ctx); err != nil {
			return err
		}
	}
	if w.Config.Firewall.Enabled {
		if err := w.openFirewall(ctx, role); err != nil {
			return err
		}
	} else {
		log.Debugf("Firewall configuration is disabled")
	}
	if err := w.loadKernelModules(ctx); err != nil {
		return err
	}
	return w.applySysctl(ctx)
}

func (w *Workflow) disableSwap(ctx context.Context) error {
	util.UpdateSpinner("Disabling swap")
	if _, err := w.Host.Run(ctx, "swapoff -a"); err != nil {
		return errors.Wrap(err, "disabling swap")
	}
	if !w.Host.FileExists(constant.FstabPath) {
		return nil
	}
	data, err := w.Host.ReadFile(constant.FstabPath)
	if err != nil {
		return err
	}
	_, err = w.Host.WriteFile(constant.FstabPath, []byte(CommentSwapEntries(string(data))), 0644)
	return err
}

// CommentSwapEntries prefixes active swap lines of an fstab with a single "#".
func CommentSwapEntries(fstab string) string {
	lines := strings.Split(fstab, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 3 && fields[2] == "swap" {
			lines[i] = "#" + line
		}
	}
	return strings.Join(lines, "\n")
}

func (w *Workflow) disableSelinux(ctx context.Context) error {
	util.UpdateSpinner("Setting SELinux to permissive")
	out, err := w.Host.Run(ctx, "getenforce")
	if err == nil && strings.EqualFold(strings.TrimSpace(out), "enforcing") {
		if _, err = w.Host.Run(ctx, "setenforce 0"); err != nil {
			return errors.Wrap(err, "setting SELinux to permissive")
		}
	}
	if !w.Host.FileExists(constant.SelinuxConfigPath) {
		return nil
	}
	data, err := w.Host.ReadFile(constant.SelinuxConfigPath)
	if err != nil {
		return err
	}
	_, err = w.Host.WriteFile(constant.SelinuxConfigPath, []byte(PermissiveSelinux(string(data))), 0644)
	return err
}

// PermissiveSelinux switches an enforcing SELinux config to permissive.
func PermissiveSelinux(config string) string {
	return selinuxEnforcingRegex.ReplaceAllString(config, "SELINUX=permissive")
}

func (w *Workflow) loadKernelModules(ctx context.Context) error {
	util.UpdateSpinner("Loading kernel modules")
	conf, err := util.RenderTemplate(templates.ModulesLoadConf, util.TemplateVars{"Modules": constant.KernelModules})
	if err != nil {
		return err
	}
	if _, err = w.Host.WriteFile(constant.ModulesLoadPath, []byte(conf), 0644); err != nil {
		return err
	}
	for _, module := range constant.KernelModules {
		if _, err = w.Host.Run(ctx, fmt.Sprintf("modprobe %s", module)); err != nil {
			return errors.Wrapf(err, "loading kernel module %s", module)
		}
	}
	return nil
}

func (w *Workflow) applySysctl(ctx context.Context) error {
	util.UpdateSpinner("Applying sysctl settings")
	conf, err := util.RenderTemplate(templates.SysctlConf, nil)
	if err != nil {
		return err
	}
	if _, err = w.Host.WriteFile(constant.SysctlPath, []byte(conf), 0644); err != nil {
		return err
	}
	_, err = w.Host.Run(ctx, "sysctl --system")
	return errors.Wrap(err, "applying sysctl settings")
}
