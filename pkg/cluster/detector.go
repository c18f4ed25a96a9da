// Package cluster decides what to do when a node may already run a control plane.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	kos "com.github.tunahansezen/kubeboot/pkg/os"
	log "github.com/sirupsen/logrus"
)

type Result int

const (
	NoCluster Result = iota
	ExistingFound
)

func (r Result) String() string {
	if r == ExistingFound {
		return "existing-found"
	}
	return "no-cluster"
}

// Detection records which control-plane signals were seen on the host.
type Detection struct {
	AdminConf         bool
	APIServerManifest bool
	APIServerProcess  bool
}

func (d Detection) Result() Result {
	if d.AdminConf || d.APIServerManifest || d.APIServerProcess {
		return ExistingFound
	}
	return NoCluster
}

func (d Detection) Signals() []string {
	var signals []string
	if d.AdminConf {
		signals = append(signals, constant.KubeAdminConfPath)
	}
	if d.APIServerManifest {
		signals = append(signals, constant.KubeAPIServerManifest)
	}
	if d.APIServerProcess {
		signals = append(signals, fmt.Sprintf("%s process", constant.KubeAPIServerProcess))
	}
	return signals
}

func (d Detection) String() string {
	if d.Result() == NoCluster {
		return NoCluster.String()
	}
	return fmt.Sprintf("%s (%s)", ExistingFound, strings.Join(d.Signals(), ", "))
}

// Detect checks the admin kubeconfig, the apiserver static pod manifest and the apiserver process.
func Detect(ctx context.Context, host *kos.Host) Detection {
	d := Detection{
		AdminConf:         host.FileExists(constant.KubeAdminConfPath),
		APIServerManifest: host.FileExists(constant.KubeAPIServerManifest),
	}
	out, err := host.Run(ctx, fmt.Sprintf("pgrep -x %s", constant.KubeAPIServerProcess))
	d.APIServerProcess = err == nil && strings.TrimSpace(out) != ""
	log.Debugf("Cluster detection: %s", d)
	return d
}
