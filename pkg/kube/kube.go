package kube

import (
	"context"
	"fmt"
	"net"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	kos "com.github.tunahansezen/kubeboot/pkg/os"
	"github.com/pkg/errors"
)

func kubectl(args string) string {
	return fmt.Sprintf("kubectl --kubeconfig=%s %s", constant.KubeAdminConfPath, args)
}

func InitCommand(ip net.IP, podNetworkCidr string) string {
	return fmt.Sprintf("kubeadm init --apiserver-advertise-address=%s --control-plane-endpoint=%s --pod-network-cidr=%s",
		ip, ip, podNetworkCidr)
}

func ApplyCommand(url string) string {
	return kubectl(fmt.Sprintf("apply -f %s", url))
}

func ReadyCommand() string {
	return kubectl("get --raw=/readyz")
}

// CreateJoinCommand asks kubeadm for a fresh bootstrap token and returns the printed join command.
func CreateJoinCommand(ctx context.Context, exec kos.Executor) (string, error) {
	out, err := exec.Run(ctx, "kubeadm token create --print-join-command")
	if err != nil {
		return "", errors.Wrap(err, "creating join command")
	}
	joinCmd := strings.TrimSpace(out)
	if joinCmd == "" {
		return "", errors.New("kubeadm printed an empty join command")
	}
	return joinCmd, nil
}

// Version returns the kubeadm version, or "unknown" when it cannot be read.
func Version(ctx context.Context, exec kos.Executor) string {
	out, err := exec.Run(ctx, "kubeadm version -o short")
	if err != nil || strings.TrimSpace(out) == "" {
		return constant.UnknownKubeVersion
	}
	return strings.TrimSpace(out)
}

func RemoveControlPlaneTaint(ctx context.Context, exec kos.Executor) error {
	_, err := exec.Run(ctx, kubectl(fmt.Sprintf("taint nodes --all %s", constant.ControlPlaneTaint)))
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return errors.Wrap(err, "removing control-plane taint")
}
