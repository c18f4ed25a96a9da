package core

import (
	"context"
	"fmt"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Port struct {
	From     int
	To       int
	Protocol string
}

func (p Port) firewalld() string {
	if p.To > p.From {
		return fmt.Sprintf("%d-%d/%s", p.From, p.To, p.Protocol)
	}
	return fmt.Sprintf("%d/%s", p.From, p.Protocol)
}

func (p Port) ufw() string {
	if p.To > p.From {
		return fmt.Sprintf("%d:%d/%s", p.From, p.To, p.Protocol)
	}
	return fmt.Sprintf("%d/%s", p.From, p.Protocol)
}

var (
	masterPorts = []Port{
		{6443, 6443, "tcp"},
		{2379, 2380, "tcp"},
		{10250, 10250, "tcp"},
		{10257, 10257, "tcp"},
		{10259, 10259, "tcp"},
		{179, 179, "tcp"},
		{4789, 4789, "udp"},
		{5473, 5473, "tcp"},
	}
	workerPorts = []Port{
		{10250, 10250, "tcp"},
		{30000, 32767, "tcp"},
		{179, 179, "tcp"},
		{4789, 4789, "udp"},
		{5473, 5473, "tcp"},
	}
)

func RolePorts(role Role) []Port {
	if role == RoleWorker {
		return workerPorts
	}
	return masterPorts
}

func (w *Workflow) openFirewall(ctx context.Context, role Role) error {
	util.UpdateSpinner("Opening firewall ports")
	switch w.Host.Installer {
	case os.Dnf:
		return w.openFirewalld(ctx, RolePorts(role))
	case os.Apt:
		return w.openUfw(ctx, RolePorts(role))
	}
	return nil
}

func (w *Workflow) openFirewalld(ctx context.Context, ports []Port) error {
	if !w.Host.CommandExists(ctx, "firewall-cmd") || !w.Host.IsServiceActive(ctx, "firewalld") {
		log.Debugf("firewalld is not active. Skipping firewall configuration")
		return nil
	}
	added := 0
	for _, port := range ports {
		rule := port.firewalld()
		if _, err := w.Host.Run(ctx, fmt.Sprintf("firewall-cmd --permanent --query-port=%s", rule)); err == nil {
			log.Tracef("Port %s is already open", rule)
			continue
		}
		if _, err := w.Host.Run(ctx, fmt.Sprintf("firewall-cmd --permanent --add-port=%s", rule)); err != nil {
			return errors.Wrapf(err, "opening port %s", rule)
		}
		added++
	}
	if added == 0 {
		return nil
	}
	_, err := w.Host.Run(ctx, "firewall-cmd --reload")
	return errors.Wrap(err, "reloading firewalld")
}

func (w *Workflow) openUfw(ctx context.Context, ports []Port) error {
	if !w.Host.CommandExists(ctx, "ufw") {
		log.Debugf("ufw is not installed. Skipping firewall configuration")
		return nil
	}
	out, err := w.Host.Run(ctx, "ufw status")
	if err != nil || !strings.Contains(out, "Status: active") {
		log.Debugf("ufw is not active. Skipping firewall configuration")
		return nil
	}
	existing := ParseUfwRules(out)
	for _, port := range ports {
		rule := port.ufw()
		if existing[rule] {
			log.Tracef("Port %s is already allowed", rule)
			continue
		}
		if _, err = w.Host.Run(ctx, fmt.Sprintf("ufw allow %s", rule)); err != nil {
			return errors.Wrapf(err, "allowing port %s", rule)
		}
	}
	return nil
}

// ParseUfwRules returns the first field of every rule line of "ufw status".
func ParseUfwRules(status string) map[string]bool {
	rules := map[string]bool{}
	for _, line := range strings.Split(status, "\n") {
		if !strings.Contains(line, "ALLOW") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			rules[fields[0]] = true
		}
	}
	return rules
}
