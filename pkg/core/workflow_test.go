package core

import (
	"context"
	"io"
	"io/fs"
	"strings"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/cluster"
	cfg "com.github.tunahansezen/kubeboot/pkg/config"
	"com.github.tunahansezen/kubeboot/pkg/config/model"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/os/ostest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
)

const (
	nodeIP      = "10.0.0.5"
	joinCommand = "kubeadm join 10.0.0.5:6443 --token abcdef.0123456789abcdef --discovery-token-ca-cert-hash sha256:1234"
	testAdmin   = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://10.0.0.5:6443
  name: kubernetes
contexts:
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
	containerdDefaults = `version = 2
[plugins."io.containerd.grpc.v1.cri".containerd.runtimes.runc.options]
    SystemdCgroup = false
`
)

type testEnv struct {
	fs     afero.Fs
	exec   *ostest.FakeExecutor
	w      *Workflow
	sleeps []time.Duration
}

func newTestEnv(osRelease string, mutate func(c *model.Config)) *testEnv {
	fs := afero.NewMemMapFs()
	Expect(afero.WriteFile(fs, constant.OSReleasePath, []byte(osRelease), 0644)).To(Succeed())

	exec := ostest.NewFakeExecutor().
		On("id -u", ostest.OK("0")).
		On("ip -4 route get", ostest.OK("1.1.1.1 via 10.0.0.1 dev eth0 src "+nodeIP+" uid 0")).
		On("hostname", ostest.OK("node-1")).
		On("containerd config default", ostest.OK(containerdDefaults)).
		On("pgrep", ostest.Fail(1, "")).
		On("kubeadm token create", ostest.OK(joinCommand+"\n")).
		On("kubeadm version", ostest.OK("v1.30.4"))
	exec.Handle("kubeadm init", func(string) ostest.Response {
		_ = afero.WriteFile(fs, constant.KubeAdminConfPath, []byte(testAdmin), 0600)
		return ostest.OK("Your Kubernetes control-plane has initialized successfully!")
	})

	config, err := cfg.Load(afero.NewMemMapFs(), "")
	Expect(err).NotTo(HaveOccurred())
	config.Calico.RetryDelay = time.Millisecond
	config.APIWait.Interval = time.Millisecond
	config.Service.RetryDelay = 0
	if mutate != nil {
		mutate(&config)
	}

	host := os.NewHost(exec, fs)
	host.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	env := &testEnv{fs: fs, exec: exec}
	w := NewWorkflow(host, config)
	w.Resolver.Interactive = false
	w.Resolver.Out = io.Discard
	w.Resolver.Prompter = cluster.NewLinePrompter(strings.NewReader(""), io.Discard, time.Second)
	w.Sleep = func(ctx context.Context, d time.Duration) error {
		env.sleeps = append(env.sleeps, d)
		return ctx.Err()
	}
	env.w = w
	return env
}

func (e *testEnv) answer(input string) {
	e.w.Resolver.Interactive = true
	e.w.Resolver.Prompter = cluster.NewLinePrompter(strings.NewReader(input), io.Discard, time.Second)
}

func (e *testEnv) read(file string) string {
	data, err := afero.ReadFile(e.fs, file)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

func indexOf(calls []string, prefix string, from int) int {
	for i := from; i < len(calls); i++ {
		if strings.HasPrefix(calls[i], prefix) {
			return i
		}
	}
	return -1
}

const ubuntuRelease = "NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"22.04\"\n"
const fedoraRelease = "NAME=\"Fedora Linux\"\nID=fedora\nVERSION_ID=40\n"

var _ = Describe("Workflow", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("master without an existing cluster", func() {
		It("bootstraps once with the detected address and publishes the join command", func() {
			env := newTestEnv(ubuntuRelease, nil)

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionFreshInit))
			inits := env.exec.CallsWithPrefix("kubeadm init")
			Expect(inits).To(HaveLen(1))
			Expect(inits[0]).To(ContainSubstring("--apiserver-advertise-address=" + nodeIP))
			Expect(inits[0]).To(ContainSubstring("--control-plane-endpoint=" + nodeIP))
			Expect(inits[0]).To(ContainSubstring("--pod-network-cidr=192.168.0.0/16"))

			script := env.read(env.w.Artifacts.JoinCommand())
			Expect(script).To(ContainSubstring("kubeadm join"))
			info, err := env.fs.Stat(env.w.Artifacts.JoinCommand())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(BeEquivalentTo(0700))

			report := env.read(env.w.Artifacts.ClusterInfo())
			Expect(report).To(ContainSubstring("Master IP:           " + nodeIP))
			Expect(report).To(ContainSubstring("https://10.0.0.5:6443"))
			Expect(report).To(ContainSubstring("v1.30.4"))
			Expect(report).To(ContainSubstring(env.w.RunID))

			Expect(env.read(constant.RootKubeConfig)).To(Equal(testAdmin))
			Expect(env.read(env.w.Artifacts.InitLog())).To(ContainSubstring(env.w.RunID))
			Expect(testutil.GatherAndCount(env.w.Metrics.Gatherer(), "kubeboot_step_success")).To(Equal(8))
		})

		It("writes the containerd config with the systemd cgroup driver", func() {
			env := newTestEnv(ubuntuRelease, nil)
			// output of a local command comes back without its trailing newline
			env.exec.On("containerd config default", ostest.OK(strings.TrimSuffix(containerdDefaults, "\n")))

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.read(constant.ContainerdConfigPath)).To(HaveSuffix("    SystemdCgroup = true\n"))
			Expect(env.exec.Count("systemctl restart containerd")).To(Equal(1))
			Expect(env.exec.Count("systemctl enable containerd")).To(Equal(1))
		})

		It("propagates the kubeadm init exit code", func() {
			env := newTestEnv(ubuntuRelease, nil)
			env.exec.On("kubeadm init", ostest.Fail(3, "error execution phase preflight"))

			err := env.w.Run(ctx, RoleMaster)

			Expect(err).To(HaveOccurred())
			Expect(os.ExitCode(err)).To(Equal(3))
			Expect(env.exec.Count("kubeadm token create")).To(BeZero())
		})
	})

	Context("master with an existing cluster", func() {
		var env *testEnv

		BeforeEach(func() {
			env = newTestEnv(ubuntuRelease, nil)
			Expect(afero.WriteFile(env.fs, constant.KubeAdminConfPath, []byte(testAdmin), 0600)).To(Succeed())
		})

		It("uses the existing cluster without prompting when stdin is not interactive", func() {
			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionUseExisting))
			Expect(env.exec.Count("kubeadm init")).To(BeZero())
			Expect(env.exec.Count("kubeadm reset")).To(BeZero())
			Expect(env.read(env.w.Artifacts.JoinCommand())).To(ContainSubstring("kubeadm join"))
		})

		It("uses the existing cluster after three empty reads", func() {
			env.answer("\n  \n\n")

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionUseExisting))
			Expect(env.exec.Count("kubeadm init")).To(BeZero())
		})

		It("does not reset when the confirmation is not exact", func() {
			env.answer("1\nyes\n2\n")

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionUseExisting))
			Expect(env.exec.Count("kubeadm reset")).To(BeZero())
			Expect(env.exec.Count("kubeadm init")).To(BeZero())
		})

		It("resets in order and bootstraps again after confirmation", func() {
			env.answer("1\nYES\n")

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionReset))
			calls := env.exec.Calls()
			stop := indexOf(calls, "systemctl stop kubelet", 0)
			Expect(stop).To(BeNumerically(">=", 0))
			order := []string{"kubeadm reset -f", "rm -rf /etc/kubernetes/pki", "rm -f /etc/kubernetes/admin.conf",
				"iptables -t nat -F", "systemctl restart containerd", "kubeadm init"}
			last := stop
			for _, prefix := range order {
				next := indexOf(calls, prefix, last+1)
				Expect(next).To(BeNumerically(">", last), prefix)
				last = next
			}
			Expect(env.exec.Count("kubeadm init")).To(Equal(1))
			Expect(env.exec.CallsWithPrefix("rm -f")[0]).To(ContainSubstring(constant.RootKubeConfig))
		})

		It("aborts when interrupted at the prompt", func() {
			cancelled, cancel := context.WithCancel(ctx)
			reader, writer := io.Pipe()
			defer writer.Close()
			env.w.Resolver.Interactive = true
			env.w.Resolver.Prompter = cluster.NewLinePrompter(reader, io.Discard, time.Minute)
			env.exec.Handle("pgrep", func(string) ostest.Response {
				cancel()
				return ostest.Fail(1, "")
			})

			Expect(env.w.Run(cancelled, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionAbort))
			Expect(env.exec.Count("kubeadm")).To(BeZero())
		})

		It("stops without changes on abort", func() {
			env.answer("3\n")

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.w.Action()).To(Equal(cluster.ActionAbort))
			Expect(env.exec.Count("kubeadm")).To(BeZero())
			exists, _ := afero.Exists(env.fs, env.w.Artifacts.JoinCommand())
			Expect(exists).To(BeFalse())
		})
	})

	Context("network plugin", func() {
		const apply = "kubectl --kubeconfig=/etc/kubernetes/admin.conf apply"

		It("retries until the manifest applies", func() {
			env := newTestEnv(ubuntuRelease, nil)
			env.exec.On(apply, ostest.Fail(1, "connection refused"), ostest.Fail(1, "connection refused"), ostest.OK("applied"))

			attempts, err := env.w.InstallNetworkPlugin(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(Equal(3))
			Expect(env.exec.Count(apply)).To(Equal(3))
			Expect(env.sleeps).To(Equal([]time.Duration{30 * time.Second}))
		})

		It("continues the run when every attempt fails", func() {
			env := newTestEnv(ubuntuRelease, nil)
			env.exec.On(apply, ostest.Fail(1, "connection refused"))

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.exec.Count(apply)).To(Equal(3))
			Expect(env.read(env.w.Artifacts.JoinCommand())).To(ContainSubstring("kubeadm join"))
			Expect(env.read(env.w.Artifacts.ClusterInfo())).To(ContainSubstring("(not applied)"))
		})

		It("keeps going when the API never becomes ready", func() {
			env := newTestEnv(ubuntuRelease, nil)
			env.exec.On("kubectl --kubeconfig=/etc/kubernetes/admin.conf get --raw=/readyz", ostest.Fail(1, "refused"))

			Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

			Expect(env.exec.Count("kubectl --kubeconfig=/etc/kubernetes/admin.conf get --raw=/readyz")).To(Equal(10))
		})
	})

	It("removes the control-plane taint when workloads may run on the master", func() {
		env := newTestEnv(ubuntuRelease, func(c *model.Config) {
			c.Kubernetes.SchedulePodsOnMaster = true
		})
		env.exec.On("kubectl --kubeconfig=/etc/kubernetes/admin.conf taint", ostest.Fail(1, "connection refused"))

		Expect(env.w.Run(ctx, RoleMaster)).To(Succeed())

		Expect(env.exec.Count("kubectl --kubeconfig=/etc/kubernetes/admin.conf taint nodes --all")).To(Equal(1))
	})

	Context("preflight", func() {
		const fstab = "UUID=1234 / ext4 defaults 0 1\n/swap.img none swap sw 0 0\n# /old none swap sw 0 0\n"

		It("is idempotent", func() {
			env := newTestEnv(fedoraRelease, nil)
			Expect(env.w.Host.DetectOS()).To(Succeed())
			Expect(afero.WriteFile(env.fs, constant.FstabPath, []byte(fstab), 0644)).To(Succeed())
			Expect(afero.WriteFile(env.fs, constant.SelinuxConfigPath, []byte("SELINUX=enforcing\nSELINUXTYPE=targeted\n"), 0644)).To(Succeed())

			open := map[string]bool{}
			env.exec.On("command -v firewall-cmd", ostest.OK("/usr/bin/firewall-cmd"))
			env.exec.On("systemctl is-active firewalld", ostest.OK("active"))
			env.exec.On("getenforce", ostest.OK("Enforcing"))
			env.exec.Handle("firewall-cmd --permanent --query-port=", func(command string) ostest.Response {
				if open[strings.TrimPrefix(command, "firewall-cmd --permanent --query-port=")] {
					return ostest.OK("yes")
				}
				return ostest.Fail(1, "no")
			})
			env.exec.Handle("firewall-cmd --permanent --add-port=", func(command string) ostest.Response {
				open[strings.TrimPrefix(command, "firewall-cmd --permanent --add-port=")] = true
				return ostest.OK("success")
			})

			Expect(env.w.Preflight(ctx, RoleMaster)).To(Succeed())
			firstFstab := env.read(constant.FstabPath)
			firstBackups := backups(env.fs)
			firstAdds := env.exec.Count("firewall-cmd --permanent --add-port=")

			Expect(env.w.Preflight(ctx, RoleMaster)).To(Succeed())

			Expect(env.read(constant.FstabPath)).To(Equal(firstFstab))
			Expect(firstFstab).To(ContainSubstring("#/swap.img none swap"))
			Expect(firstFstab).NotTo(ContainSubstring("##"))
			Expect(env.read(constant.SelinuxConfigPath)).To(Equal("SELINUX=permissive\nSELINUXTYPE=targeted\n"))
			Expect(backups(env.fs)).To(Equal(firstBackups))
			Expect(firstAdds).To(Equal(len(masterPorts)))
			Expect(env.exec.Count("firewall-cmd --permanent --add-port=")).To(Equal(firstAdds))
			Expect(env.exec.Count("firewall-cmd --reload")).To(Equal(1))
			Expect(env.read(constant.ModulesLoadPath)).To(Equal("overlay\nbr_netfilter\n"))
		})

		It("skips ports that ufw already allows", func() {
			env := newTestEnv(ubuntuRelease, nil)
			Expect(env.w.Host.DetectOS()).To(Succeed())
			env.exec.On("command -v ufw", ostest.OK("/usr/sbin/ufw"))
			env.exec.On("ufw status", ostest.OK("Status: active\n\nTo                         Action      From\n--                         ------      ----\n10250/tcp                  ALLOW       Anywhere\n"))

			Expect(env.w.Preflight(ctx, RoleWorker)).To(Succeed())

			Expect(env.exec.Count("ufw allow 10250/tcp")).To(BeZero())
			Expect(env.exec.Count("ufw allow")).To(Equal(len(workerPorts) - 1))
			Expect(env.exec.Count("ufw allow 30000:32767/tcp")).To(Equal(1))
		})
	})

	Context("worker", func() {
		It("joins with the configured command and writes the report", func() {
			env := newTestEnv(ubuntuRelease, func(c *model.Config) {
				c.Join.Command = joinCommand
			})
			env.exec.On("kubeadm join", ostest.OK("This node has joined the cluster"))

			Expect(env.w.Run(ctx, RoleWorker)).To(Succeed())

			Expect(env.exec.Count("kubeadm join")).To(Equal(1))
			Expect(env.exec.Count("kubeadm init")).To(BeZero())
			Expect(env.read(env.w.Artifacts.JoinLog())).To(ContainSubstring("joined the cluster"))
			report := env.read(env.w.Artifacts.WorkerInfo())
			Expect(report).To(ContainSubstring("joined in this run"))
			Expect(report).To(ContainSubstring("Node IP:             " + nodeIP))
		})

		It("only prepares the node without a join command", func() {
			env := newTestEnv(ubuntuRelease, nil)

			Expect(env.w.Run(ctx, RoleWorker)).To(Succeed())

			Expect(env.exec.Count("kubeadm join")).To(BeZero())
			Expect(env.read(env.w.Artifacts.WorkerInfo())).To(ContainSubstring("Next steps"))
		})
	})

	It("fails when not running as root", func() {
		env := newTestEnv(ubuntuRelease, nil)
		env.exec.On("id -u", ostest.OK("1000"))

		Expect(env.w.Run(ctx, RoleMaster)).To(MatchError(ContainSubstring("must run as root")))
		Expect(env.exec.Count("swapoff")).To(BeZero())
	})
})

func backups(afs afero.Fs) []string {
	var found []string
	_ = afero.Walk(afs, "/", func(p string, _ fs.FileInfo, err error) error {
		if err == nil && strings.Contains(p, ".bak.") {
			found = append(found, p)
		}
		return nil
	})
	return found
}
