package constant

import "time"

const (
	AppName          = "kubeboot"
	DefaultCfgFile   = "/etc/kubeboot/kubeboot.yaml"
	DefaultCfgType   = "yaml"
	EnvPrefix        = "KUBEBOOT"
	BackupTimeFormat = "20060102-150405"

	DefaultArtifactsDir = "/var/lib/kubeboot"
	JoinCommandFile     = "join-command.sh"
	ClusterInfoFile     = "cluster-info.txt"
	WorkerInfoFile      = "worker-info.txt"
	KubeadmInitLogFile  = "kubeadm-init.log"
	KubeadmJoinLogFile  = "kubeadm-join.log"

	KubeAdminConfPath     = "/etc/kubernetes/admin.conf"
	KubeletConfPath       = "/etc/kubernetes/kubelet.conf"
	KubeAPIServerManifest = "/etc/kubernetes/manifests/kube-apiserver.yaml"
	KubeAPIServerProcess  = "kube-apiserver"
	RootKubeConfig        = "/root/.kube/config"

	ContainerdConfigPath = "/etc/containerd/config.toml"
	FstabPath            = "/etc/fstab"
	SelinuxConfigPath    = "/etc/selinux/config"
	ModulesLoadPath      = "/etc/modules-load.d/k8s.conf"
	SysctlPath           = "/etc/sysctl.d/k8s.conf"
	OSReleasePath        = "/etc/os-release"

	AptKeyringDir       = "/etc/apt/keyrings"
	AptSourcesDir       = "/etc/apt/sources.list.d"
	YumReposDir         = "/etc/yum.repos.d"
	KubeRepoName        = "kubernetes"
	KubeRepoBaseAddress = "https://pkgs.k8s.io/core:/stable:/v{version}"

	DefaultKubeVersion       = "1.30"
	MinKubeVersion           = "1.24"
	DefaultPodNetworkCidr    = "192.168.0.0/16"
	DefaultCalicoVersion     = "auto"
	DefaultCalicoUrl         = "https://raw.githubusercontent.com/projectcalico/calico/v{version}/manifests/calico.yaml"
	DefaultConfirmWord       = "YES"
	DefaultRemoteUser        = "root"
	RouteProbeAddress        = "1.1.1.1"
	ControlPlaneTaint        = "node-role.kubernetes.io/control-plane-"
	UnknownKubeVersion       = "unknown"
	SSHPort                  = 22
	DefaultCalicoAttempts    = 3
	DefaultAPIWaitAttempts   = 10
	DefaultPromptAttempts    = 5
	DefaultPromptEmptyReads  = 3
	DefaultServiceAttempts   = 3
	DefaultCalicoRetryDelay  = 15 * time.Second
	DefaultCalicoSettleDelay = 30 * time.Second
	DefaultAPIWaitInterval   = 10 * time.Second
	DefaultPromptTimeout     = 30 * time.Second
	DefaultServiceRetryDelay = 5 * time.Second
)

var (
	KernelModules = []string{"overlay", "br_netfilter"}
	KubePackages  = []string{"kubelet", "kubeadm", "kubectl"}
	ResetDirs     = []string{"/etc/kubernetes/pki", "/var/lib/etcd", "/etc/cni/net.d", "/var/lib/cni"}
	KubeConfFiles = []string{
		"/etc/kubernetes/admin.conf",
		"/etc/kubernetes/super-admin.conf",
		"/etc/kubernetes/kubelet.conf",
		"/etc/kubernetes/controller-manager.conf",
		"/etc/kubernetes/scheduler.conf",
	}
)
