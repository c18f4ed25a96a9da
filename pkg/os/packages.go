package os

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/config/templates"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Repo describes a package repository. Key is the keyring path on apt hosts and the key url on dnf hosts.
type Repo struct {
	Name    string
	Title   string
	Address string
	Key     string
	Exclude []string
}

// PackageInstalled reports whether p is installed according to the host's package database.
func (h *Host) PackageInstalled(ctx context.Context, p string) bool {
	switch h.Installer {
	case Apt:
		out, err := h.Exec.Run(ctx, fmt.Sprintf("dpkg-query -W -f='${Status}' %s 2>/dev/null", p))
		return err == nil && strings.Contains(out, "install ok installed")
	case Dnf:
		_, err := h.Exec.Run(ctx, fmt.Sprintf("rpm -q %s", p))
		return err == nil
	}
	return false
}

// InstallPackages installs the packages that are not installed yet. extraArgs are appended to the
// installer command line.
func (h *Host) InstallPackages(ctx context.Context, ps []string, extraArgs ...string) error {
	var missing []string
	for _, p := range ps {
		if h.PackageInstalled(ctx, p) {
			log.Debugf("\"%s\" is already installed. Skipping...", p)
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return nil
	}
	var cmd string
	switch h.Installer {
	case Apt:
		cmd = "DEBIAN_FRONTEND=noninteractive apt-get install -y %s"
	case Dnf:
		cmd = "dnf install -y %s"
	}
	args := append(missing, extraArgs...)
	if _, err := h.Exec.Run(ctx, fmt.Sprintf(cmd, strings.Join(args, " "))); err != nil {
		return errors.Wrapf(err, "installing %s", strings.Join(missing, ", "))
	}
	log.Debugf("Installed %s", strings.Join(missing, ", "))
	return nil
}

func (h *Host) UpdateRepos(ctx context.Context) error {
	var cmd string
	switch h.Installer {
	case Apt:
		cmd = "apt-get update -y"
	case Dnf:
		cmd = "dnf makecache -y"
	}
	_, err := h.Exec.Run(ctx, cmd)
	return errors.Wrap(err, "updating package repositories")
}

// AddGpgKey downloads the armored key at url into the apt keyring directory. An existing keyring is kept.
func (h *Host) AddGpgKey(ctx context.Context, url, name string) (string, error) {
	if url == "" {
		log.Debugf("No key found for %s repo.", name)
		return "", nil
	}
	path := filepath.Join(constant.AptKeyringDir, fmt.Sprintf("%s-apt-keyring.gpg", name))
	if h.FileExists(path) {
		log.Debugf("Keyring \"%s\" already exists", path)
		return path, nil
	}
	if err := h.Fs.MkdirAll(constant.AptKeyringDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", constant.AptKeyringDir)
	}
	if _, err := h.Exec.Run(ctx, fmt.Sprintf("curl -fsSL %s | gpg --dearmor --yes -o %s", url, path)); err != nil {
		return "", errors.Wrapf(err, "downloading %s key", name)
	}
	return path, nil
}

// AddRepository writes the repository definition. It reports whether the file changed.
func (h *Host) AddRepository(repo Repo) (bool, error) {
	switch h.Installer {
	case Apt:
		line := fmt.Sprintf("deb [signed-by=%s] %s /\n", repo.Key, repo.Address)
		if repo.Key == "" {
			line = fmt.Sprintf("deb [trusted=yes] %s /\n", repo.Address)
		}
		return h.WriteFile(filepath.Join(constant.AptSourcesDir, repo.Name+".list"), []byte(line), 0644)
	case Dnf:
		rendered, err := util.RenderTemplate(templates.YumRepo, util.TemplateVars{
			"Name":    repo.Name,
			"Title":   repo.Title,
			"Address": repo.Address,
			"Key":     repo.Key,
			"Exclude": strings.Join(repo.Exclude, " "),
		})
		if err != nil {
			return false, err
		}
		return h.WriteFile(filepath.Join(constant.YumReposDir, repo.Name+".repo"), []byte(rendered), 0644)
	}
	return false, errors.Errorf("unsupported installer: %s", h.Installer)
}

// LockPackageVersion keeps the package manager from upgrading ps.
func (h *Host) LockPackageVersion(ctx context.Context, ps ...string) error {
	var cmd string
	switch h.Installer {
	case Apt:
		cmd = "apt-mark hold %s"
	case Dnf:
		if _, err := h.Exec.Run(ctx, "dnf versionlock --help"); err != nil {
			log.Debugf("dnf versionlock plugin is not available, relying on repo excludes")
			return nil
		}
		cmd = "dnf versionlock add %s"
	}
	_, err := h.Exec.Run(ctx, fmt.Sprintf(cmd, strings.Join(ps, " ")))
	return errors.Wrapf(err, "locking %s", strings.Join(ps, ", "))
}
