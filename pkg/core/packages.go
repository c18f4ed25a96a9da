package core

import (
	"context"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
)

var aptPrerequisites = []string{"apt-transport-https", "ca-certificates", "curl", "gpg"}

func (w *Workflow) kubeRepoAddress() string {
	return strings.ReplaceAll(constant.KubeRepoBaseAddress, "{version}", w.Config.Kubernetes.RepoMinor())
}

// InstallKubernetes sets up the pkgs.k8s.io repository and installs the pinned kubernetes packages.
func (w *Workflow) InstallKubernetes(ctx context.Context) error {
	base := w.kubeRepoAddress()
	switch w.Host.Installer {
	case os.Apt:
		if err := w.installKubeApt(ctx, base); err != nil {
			return err
		}
	case os.Dnf:
		if err := w.installKubeDnf(ctx, base); err != nil {
			return err
		}
	default:
		return errors.Errorf("unsupported installer: %s", w.Host.Installer)
	}
	util.UpdateSpinner("Enabling kubelet")
	_, err := w.Host.Run(ctx, "systemctl enable --now kubelet")
	return errors.Wrap(err, "enabling kubelet")
}

func (w *Workflow) missingKubePackages(ctx context.Context) bool {
	for _, p := range constant.KubePackages {
		if !w.Host.PackageInstalled(ctx, p) {
			return true
		}
	}
	return false
}

func (w *Workflow) installKubeApt(ctx context.Context, base string) error {
	util.UpdateSpinner("Installing apt prerequisites")
	if err := w.Host.InstallPackages(ctx, aptPrerequisites); err != nil {
		return err
	}
	util.UpdateSpinner("Adding kubernetes apt repository")
	keyring, err := w.Host.AddGpgKey(ctx, base+"/deb/Release.key", constant.KubeRepoName)
	if err != nil {
		return err
	}
	changed, err := w.Host.AddRepository(os.Repo{
		Name:    constant.KubeRepoName,
		Address: base + "/deb/",
		Key:     keyring,
	})
	if err != nil {
		return err
	}
	if changed || w.missingKubePackages(ctx) {
		util.UpdateSpinner("Updating apt repositories")
		if err = w.Host.UpdateRepos(ctx); err != nil {
			return err
		}
	}
	util.UpdateSpinner("Installing kubelet, kubeadm and kubectl")
	if err = w.Host.InstallPackages(ctx, constant.KubePackages); err != nil {
		return err
	}
	return w.Host.LockPackageVersion(ctx, constant.KubePackages...)
}

func (w *Workflow) installKubeDnf(ctx context.Context, base string) error {
	util.UpdateSpinner("Adding kubernetes dnf repository")
	exclude := append(append([]string{}, constant.KubePackages...), "cri-tools", "kubernetes-cni")
	if _, err := w.Host.AddRepository(os.Repo{
		Name:    constant.KubeRepoName,
		Title:   "Kubernetes",
		Address: base + "/rpm/",
		Key:     base + "/rpm/repodata/repomd.xml.key",
		Exclude: exclude,
	}); err != nil {
		return err
	}
	util.UpdateSpinner("Installing kubelet, kubeadm and kubectl")
	if err := w.Host.InstallPackages(ctx, constant.KubePackages, "--disableexcludes="+constant.KubeRepoName); err != nil {
		return err
	}
	return w.Host.LockPackageVersion(ctx, constant.KubePackages...)
}
