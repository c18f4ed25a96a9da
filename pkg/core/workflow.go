package core

import (
	"context"
	"fmt"
	"net"
	stdos "os"
	"strings"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/cluster"
	"com.github.tunahansezen/kubeboot/pkg/config/model"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/metrics"
	"com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/path"
	"com.github.tunahansezen/kubeboot/pkg/retry"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/guumaster/logsymbols"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Role string

const (
	RoleMaster Role = "master"
	RoleWorker Role = "worker"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(s)) {
	case RoleMaster:
		return RoleMaster, nil
	case RoleWorker:
		return RoleWorker, nil
	}
	return "", errors.Errorf("unknown role \"%s\", expected master or worker", s)
}

// Workflow carries the state of one provisioning run from step to step.
type Workflow struct {
	Host      *os.Host
	Config    model.Config
	Artifacts path.Artifacts
	Resolver  *cluster.Resolver
	Metrics   *metrics.Recorder
	RunID     string
	// User receives a kubeconfig copy in addition to root. Empty means root only.
	User  string
	Sleep func(ctx context.Context, d time.Duration) error

	ip          net.IP
	action      cluster.Action
	kubeVersion string
	joinCommand string
	apiEndpoint string
	kubeConfigs []string
	networkOK   bool
}

func NewWorkflow(host *os.Host, cfg model.Config) *Workflow {
	runID := uuid.NewString()
	host.ServiceAttempts = cfg.Service.Attempts
	host.ServiceRetryDelay = cfg.Service.RetryDelay
	return &Workflow{
		Host:      host,
		Config:    cfg,
		Artifacts: path.NewArtifacts(cfg.Paths.ArtifactsDir),
		Resolver: &cluster.Resolver{
			Prompter:    cluster.NewPrompter(stdos.Stdin, stdos.Stdout, cfg.Prompt.Timeout),
			Interactive: util.IsInteractive(),
			Policy:      promptPolicy(cfg.Prompt),
			Out: stdos.Stdout,
		},
		Metrics: metrics.NewRecorder(runID),
		RunID:   runID,
		Sleep:   retry.Sleep,
		action:  cluster.ActionNone,
	}
}

// promptPolicy overrides the default menu limits with the configured ones that are set.
func promptPolicy(p model.Prompt) cluster.Policy {
	policy := cluster.DefaultPolicy()
	if p.MaxAttempts > 0 {
		policy.MaxAttempts = p.MaxAttempts
	}
	if p.MaxEmptyReads > 0 {
		policy.MaxEmptyReads = p.MaxEmptyReads
	}
	if p.ConfirmWord != "" {
		policy.ConfirmWord = p.ConfirmWord
	}
	return policy
}

func (w *Workflow) Action() cluster.Action {
	return w.action
}

func (w *Workflow) IP() net.IP {
	return w.ip
}

func (w *Workflow) now() time.Time {
	return w.Host.Now()
}

// step runs a fatal step behind a spinner and records its metrics.
func (w *Workflow) step(name, title string, fn func() error) error {
	util.StartSpinner(title)
	start := time.Now()
	err := fn()
	w.Metrics.ObserveStep(name, time.Since(start), err)
	if err != nil {
		util.StopSpinner(title, logsymbols.Error)
		return err
	}
	util.StopSpinner(title, logsymbols.Success)
	return nil
}

// softStep is like step but only warns on failure. Cancellation is still returned.
func (w *Workflow) softStep(ctx context.Context, name, title string, fn func() error) (bool, error) {
	util.StartSpinner(title)
	start := time.Now()
	err := fn()
	w.Metrics.ObserveStep(name, time.Since(start), err)
	if err != nil {
		util.StopSpinner(title, logsymbols.Warning)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Warnf("%s: %v. Continuing.", title, err)
		return false, nil
	}
	util.StopSpinner(title, logsymbols.Success)
	return true, nil
}

func (w *Workflow) Run(ctx context.Context, role Role) error {
	w.Metrics.Started(w.now())
	log.Infof("kubeboot %s run started (run id %s)", role, w.RunID)
	if err := w.Host.RequireRoot(ctx); err != nil {
		return err
	}
	if err := w.Host.DetectOS(); err != nil {
		return err
	}
	ip, err := w.detectIP(ctx)
	if err != nil {
		return err
	}
	w.ip = ip
	log.Infof("Host %s (%s, %s), primary address %s", w.Host.Hostname(ctx), w.Host.OS, w.Host.Installer, w.ip)

	if err = w.step("preflight", "Preparing the operating system", func() error {
		return w.Preflight(ctx, role)
	}); err != nil {
		return err
	}
	if err = w.step("runtime", "Installing and configuring containerd", func() error {
		return w.InstallRuntime(ctx)
	}); err != nil {
		return err
	}
	if err = w.step("packages", fmt.Sprintf("Installing kubernetes %s packages", w.Config.Kubernetes.RepoMinor()),
		func() error {
			return w.InstallKubernetes(ctx)
		}); err != nil {
		return err
	}
	if role == RoleWorker {
		return w.runWorker(ctx)
	}
	return w.runMaster(ctx)
}

func (w *Workflow) runMaster(ctx context.Context) error {
	detection := cluster.Detect(ctx, w.Host)
	action, err := w.Resolver.Resolve(ctx, detection)
	if err != nil {
		// Ctrl-C while waiting for an answer is an operator abort
		if action == cluster.ActionAbort && errors.Is(err, context.Canceled) {
			log.Warnf("Interrupted at the prompt")
		} else {
			return err
		}
	}
	w.action = action
	w.Metrics.SetAction(action.String())

	switch action {
	case cluster.ActionAbort:
		log.Infof("Aborted. The existing cluster was left as it is.")
		return nil
	case cluster.ActionReset:
		if err = w.step("reset", "Resetting the existing cluster", func() error {
			return w.Reset(ctx)
		}); err != nil {
			return err
		}
	case cluster.ActionUseExisting:
		log.Infof("Using the existing cluster, kubeadm init is skipped")
	}

	if action.Bootstraps() {
		if err = w.step("bootstrap", fmt.Sprintf("Running kubeadm init on %s", w.ip), func() error {
			return w.Bootstrap(ctx)
		}); err != nil {
			return err
		}
	}
	if err = w.step("kubeconfig", "Publishing kubeconfig files", func() error {
		return w.PublishKubeconfig(ctx)
	}); err != nil {
		return err
	}
	if _, err = w.softStep(ctx, "api", "Waiting for the API server", func() error {
		return w.WaitForAPI(ctx)
	}); err != nil {
		return err
	}
	if w.networkOK, err = w.softStep(ctx, "network", "Installing the Calico network plugin", func() error {
		_, err := w.InstallNetworkPlugin(ctx)
		return err
	}); err != nil {
		return err
	}
	if w.Config.Kubernetes.SchedulePodsOnMaster {
		if _, err = w.softStep(ctx, "taint", "Allowing workloads on the control plane", func() error {
			return w.RemoveControlPlaneTaint(ctx)
		}); err != nil {
			return err
		}
	}
	if err = w.step("publish", "Publishing join artifacts", func() error {
		return w.PublishJoinArtifacts(ctx)
	}); err != nil {
		return err
	}
	w.printMasterSummary()
	return nil
}

func (w *Workflow) printMasterSummary() {
	fmt.Println()
	color.Green("%s Kubernetes control plane is ready (%s)", logsymbols.Success, w.action)
	fmt.Printf("API endpoint:  %s\n", w.apiEndpoint)
	fmt.Printf("Kubeconfig:    %s\n", strings.Join(w.kubeConfigs, ", "))
	fmt.Printf("Cluster info:  %s\n", w.Artifacts.ClusterInfo())
	fmt.Printf("\nJoin worker nodes by running as root on each of them:\n  %s\n", w.joinCommand)
	if !w.networkOK {
		util.PrintWarning(fmt.Sprintf("Network plugin was not applied. Apply it later with:\n  kubectl --kubeconfig=%s apply -f %s",
			constant.KubeAdminConfPath, w.Config.Calico.ExactUrl(w.Config.Kubernetes.Version)))
	}
}

// detectIP returns the configured advertise address, the source address of the default route,
// or the first address from hostname -I.
func (w *Workflow) detectIP(ctx context.Context) (net.IP, error) {
	if ip := w.Config.Kubernetes.AdvertiseAddress; len(ip) != 0 {
		return ip, nil
	}
	out, err := w.Host.Run(ctx, fmt.Sprintf("ip -4 route get %s", constant.RouteProbeAddress))
	if err == nil {
		if ip := ParseRouteSource(out); ip != nil {
			return ip, nil
		}
	}
	out, err = w.Host.Run(ctx, "hostname -I")
	if err == nil {
		for _, field := range strings.Fields(out) {
			if ip := net.ParseIP(field).To4(); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, errors.New("could not detect the primary IPv4 address, set kubernetes.advertiseAddress")
}

// ParseRouteSource extracts the "src" address from "ip route get" output.
func ParseRouteSource(out string) net.IP {
	fields := strings.Fields(out)
	for i := 0; i < len(fields)-1; i++ {
		if fields[i] == "src" {
			return net.ParseIP(fields[i+1]).To4()
		}
	}
	return nil
}
