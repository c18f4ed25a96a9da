package os

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/fatih/color"
	"github.com/guumaster/logsymbols"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var exitHooks []func()

type Type int

const (
	Unknown Type = iota
	Ubuntu
	Debian
	Fedora
)

func (t Type) String() string {
	switch t {
	case Ubuntu:
		return "ubuntu"
	case Debian:
		return "debian"
	case Fedora:
		return "fedora"
	}
	return "unknown"
}

type Installer int

const (
	Apt Installer = iota
	Dnf
)

func (i Installer) String() string {
	if i == Dnf {
		return "dnf"
	}
	return "apt"
}

// Host bundles the command executor and filesystem of the node being provisioned.
type Host struct {
	Exec      Executor
	Fs        afero.Fs
	OS        Type
	Installer Installer
	Name      string

	ServiceAttempts   int
	ServiceRetryDelay time.Duration
	Now               func() time.Time
}

func NewHost(exec Executor, fs afero.Fs) *Host {
	return &Host{
		Exec:              exec,
		Fs:                fs,
		ServiceAttempts:   constant.DefaultServiceAttempts,
		ServiceRetryDelay: constant.DefaultServiceRetryDelay,
		Now:               time.Now,
	}
}

func (h *Host) Run(ctx context.Context, command string) (string, error) {
	return h.Exec.Run(ctx, command)
}

// DetectOS reads /etc/os-release and selects the package installer.
func (h *Host) DetectOS() error {
	data, err := afero.ReadFile(h.Fs, constant.OSReleasePath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", constant.OSReleasePath)
	}
	release := ParseOSRelease(string(data))
	id := strings.ToLower(release["ID"])
	idLike := strings.ToLower(release["ID_LIKE"])
	switch {
	case id == "ubuntu":
		h.OS, h.Installer = Ubuntu, Apt
	case id == "debian" || strings.Contains(idLike, "debian"):
		h.OS, h.Installer = Debian, Apt
	case id == "fedora" || strings.Contains(idLike, "fedora"):
		h.OS, h.Installer = Fedora, Dnf
	default:
		return errors.Errorf("unsupported OS: %s", release["NAME"])
	}
	return nil
}

func ParseOSRelease(content string) map[string]string {
	release := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		release[key] = strings.Trim(value, "\"'")
	}
	return release
}

// RequireRoot fails unless commands run with uid 0.
func (h *Host) RequireRoot(ctx context.Context) error {
	uid, err := h.Exec.Run(ctx, "id -u")
	if err != nil {
		return errors.Wrap(err, "checking effective user")
	}
	if strings.TrimSpace(uid) != "0" {
		return errors.New("kubeboot must run as root, try again with sudo")
	}
	return nil
}

func (h *Host) CommandExists(ctx context.Context, command string) bool {
	output, err := h.Exec.Run(ctx, fmt.Sprintf("command -v %s", command))
	return err == nil && strings.TrimSpace(output) != ""
}

func (h *Host) Hostname(ctx context.Context) string {
	if h.Name != "" {
		return h.Name
	}
	name, err := h.Exec.Run(ctx, "hostname")
	if err != nil {
		return "unknown"
	}
	h.Name = strings.TrimSpace(name)
	return h.Name
}

// RegisterExitHook adds fn to the cleanups Exit runs before the process terminates.
func RegisterExitHook(fn func()) {
	exitHooks = append(exitHooks, fn)
}

func Exit(message string, code int) {
	if util.GetSpinner() != nil {
		suffix := util.GetSpinner().Suffix
		if code != 0 {
			util.StopSpinner(strings.TrimPrefix(suffix, " "), logsymbols.Error)
		} else {
			util.StopSpinner(strings.TrimPrefix(suffix, " "), logsymbols.Success)
		}
	}
	if message != "" {
		if code == 0 {
			color.Green(message)
		} else {
			color.Red(message)
		}
	}
	for i := len(exitHooks) - 1; i >= 0; i-- {
		exitHooks[i]()
	}
	fmt.Print("\033[?25h") // make cursor visible
	os.Exit(code)
}
