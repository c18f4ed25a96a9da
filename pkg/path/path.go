package path

import (
	"fmt"
	"path/filepath"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/constant"
)

// Artifacts resolves the files kubeboot leaves behind for the operator.
type Artifacts struct {
	Dir string
}

func NewArtifacts(dir string) Artifacts {
	if dir == "" {
		dir = constant.DefaultArtifactsDir
	}
	return Artifacts{Dir: dir}
}

func (a Artifacts) JoinCommand() string {
	return filepath.Join(a.Dir, constant.JoinCommandFile)
}

func (a Artifacts) ClusterInfo() string {
	return filepath.Join(a.Dir, constant.ClusterInfoFile)
}

func (a Artifacts) WorkerInfo() string {
	return filepath.Join(a.Dir, constant.WorkerInfoFile)
}

func (a Artifacts) InitLog() string {
	return filepath.Join(a.Dir, constant.KubeadmInitLogFile)
}

func (a Artifacts) JoinLog() string {
	return filepath.Join(a.Dir, constant.KubeadmJoinLogFile)
}

func KubeConfig(home string) string {
	return filepath.Join(home, ".kube", "config")
}

// BackupName returns the timestamped backup path for file.
func BackupName(file string, t time.Time) string {
	return fmt.Sprintf("%s.bak.%s", file, t.Format(constant.BackupTimeFormat))
}
