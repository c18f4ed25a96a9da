package core

import (
	"context"
	"fmt"
	"path/filepath"

	"com.github.tunahansezen/kubeboot/pkg/config/templates"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/kube"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/fatih/color"
	"github.com/guumaster/logsymbols"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	joinStatusJoined   = "joined in this run"
	joinStatusExisting = "already joined (kubelet.conf exists)"
	joinStatusPending  = "not joined, no join command configured"
)

func (w *Workflow) runWorker(ctx context.Context) error {
	status := joinStatusPending
	switch {
	case w.Host.FileExists(constant.KubeletConfPath):
		status = joinStatusExisting
		log.Infof("%s exists, this node has already joined a cluster", constant.KubeletConfPath)
	case w.Config.Join.Command != "":
		if err := w.step("join", "Joining the cluster", func() error {
			return w.Join(ctx)
		}); err != nil {
			return err
		}
		status = joinStatusJoined
	}
	w.kubeVersion = kube.Version(ctx, w.Host.Exec)
	if err := w.step("report", "Writing worker report", func() error {
		return w.writeWorkerInfo(ctx, status)
	}); err != nil {
		return err
	}
	fmt.Println()
	color.Green("%s Worker node is prepared (%s)", logsymbols.Success, status)
	fmt.Printf("Worker info:   %s\n", w.Artifacts.WorkerInfo())
	if status == joinStatusPending {
		fmt.Printf("\nRun the join command printed by \"kubeboot run master\" on this node as root,\n"+
			"or set %s_JOIN_COMMAND and run again.\n", constant.EnvPrefix)
	}
	return nil
}

// Join runs the configured join command. Its output goes to the join log.
func (w *Workflow) Join(ctx context.Context) error {
	logFile := w.Artifacts.JoinLog()
	if err := w.Host.Fs.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(logFile))
	}
	f, err := w.Host.Fs.Create(logFile)
	if err != nil {
		return errors.Wrapf(err, "creating %s", logFile)
	}
	defer f.Close()
	_, _ = fmt.Fprintf(f, "# kubeboot run %s at %s\n", w.RunID, w.now().Format(reportTimeFormat))
	if err = w.Host.Exec.Stream(ctx, w.Config.Join.Command, f); err != nil {
		return errors.Wrapf(err, "joining the cluster failed, see %s", logFile)
	}
	return nil
}

func (w *Workflow) writeWorkerInfo(ctx context.Context, status string) error {
	report, err := util.RenderTemplate(templates.WorkerInfo, util.TemplateVars{
		"Timestamp":       w.now().Format(reportTimeFormat),
		"RunID":           w.RunID,
		"Hostname":        w.Host.Hostname(ctx),
		"NodeIP":          w.ip,
		"KubeVersion":     w.kubeVersion,
		"JoinStatus":      status,
		"Joined":          status != joinStatusPending,
		"JoinCommandFile": w.Artifacts.JoinCommand(),
	})
	if err != nil {
		return err
	}
	return w.Host.ReplaceFile(w.Artifacts.WorkerInfo(), []byte(report), 0644)
}
