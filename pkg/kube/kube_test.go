package kube

import (
	"context"
	"net"
	"testing"

	"com.github.tunahansezen/kubeboot/pkg/os/ostest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminConf = `apiVersion: v1
kind: Config
clusters:
- cluster:
    certificate-authority-data: Zm9v
    server: https://10.0.0.5:6443
  name: kubernetes
- cluster:
    server: https://10.9.9.9:6443
  name: other
contexts:
- context:
    cluster: other
    user: kubernetes-admin
  name: other-admin
- context:
    cluster: kubernetes
    user: kubernetes-admin
  name: kubernetes-admin@kubernetes
current-context: kubernetes-admin@kubernetes
users:
- name: kubernetes-admin
  user:
    token: abc
`

func TestParseKubeConfig(t *testing.T) {
	conf, err := ParseKubeConfig([]byte(adminConf))
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.5:6443", conf.Server())
	assert.Len(t, conf.Clusters, 2)

	conf.CurrentContext = "other-admin"
	assert.Equal(t, "https://10.9.9.9:6443", conf.Server())

	conf.CurrentContext = "missing"
	assert.Equal(t, "https://10.0.0.5:6443", conf.Server())
}

func TestParseKubeConfig_NoClusters(t *testing.T) {
	_, err := ParseKubeConfig([]byte("apiVersion: v1\nkind: Config\n"))
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	assert.Equal(t, "kubeadm init --apiserver-advertise-address=10.0.0.5 --control-plane-endpoint=10.0.0.5 "+
		"--pod-network-cidr=192.168.0.0/16", InitCommand(net.ParseIP("10.0.0.5"), "192.168.0.0/16"))
}

func TestCreateJoinCommand(t *testing.T) {
	exec := ostest.NewFakeExecutor().
		On("kubeadm token create", ostest.OK("kubeadm join 10.0.0.5:6443 --token abc.def --discovery-token-ca-cert-hash sha256:00\n"))
	joinCmd, err := CreateJoinCommand(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, "kubeadm join 10.0.0.5:6443 --token abc.def --discovery-token-ca-cert-hash sha256:00", joinCmd)

	exec.On("kubeadm token create", ostest.Fail(1, "connection refused"))
	_, err = CreateJoinCommand(context.Background(), exec)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	exec := ostest.NewFakeExecutor().On("kubeadm version", ostest.OK("v1.30.2"))
	assert.Equal(t, "v1.30.2", Version(context.Background(), exec))

	exec.On("kubeadm version", ostest.Fail(127, "kubeadm: not found"))
	assert.Equal(t, "unknown", Version(context.Background(), exec))
}

func TestRemoveControlPlaneTaint(t *testing.T) {
	exec := ostest.NewFakeExecutor()
	require.NoError(t, RemoveControlPlaneTaint(context.Background(), exec))
	assert.Equal(t, []string{"kubectl --kubeconfig=/etc/kubernetes/admin.conf taint nodes --all " +
		"node-role.kubernetes.io/control-plane-"}, exec.Calls())

	exec.On("kubectl", ostest.Fail(1, "error: taint \"node-role.kubernetes.io/control-plane\" not found"))
	assert.NoError(t, RemoveControlPlaneTaint(context.Background(), exec))

	exec.On("kubectl", ostest.Fail(1, "The connection to the server was refused"))
	assert.Error(t, RemoveControlPlaneTaint(context.Background(), exec))
}
