package core

import (
	"context"

	"com.github.tunahansezen/kubeboot/pkg/config/templates"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/kube"
	"com.github.tunahansezen/kubeboot/pkg/util"
	log "github.com/sirupsen/logrus"
)

const reportTimeFormat = "2006-01-02 15:04:05 MST"

// PublishJoinArtifacts writes the join command script and the cluster report.
func (w *Workflow) PublishJoinArtifacts(ctx context.Context) error {
	joinCommand, err := kube.CreateJoinCommand(ctx, w.Host.Exec)
	if err != nil {
		return err
	}
	w.joinCommand = joinCommand
	timestamp := w.now().Format(reportTimeFormat)

	script, err := util.RenderTemplate(templates.JoinCommandSh, util.TemplateVars{
		"Timestamp":   timestamp,
		"RunID":       w.RunID,
		"JoinCommand": joinCommand,
	})
	if err != nil {
		return err
	}
	if err = w.Host.ReplaceFile(w.Artifacts.JoinCommand(), []byte(script), 0700); err != nil {
		return err
	}

	w.kubeVersion = kube.Version(ctx, w.Host.Exec)
	w.apiEndpoint = w.readAPIEndpoint()
	networkPlugin := "calico " + w.Config.Calico.ResolvedVersion(w.Config.Kubernetes.Version)
	if !w.networkOK {
		networkPlugin += " (not applied)"
	}
	report, err := util.RenderTemplate(templates.ClusterInfo, util.TemplateVars{
		"Timestamp":       timestamp,
		"RunID":           w.RunID,
		"MasterIP":        w.ip,
		"APIEndpoint":     w.apiEndpoint,
		"KubeVersion":     w.kubeVersion,
		"Action":          w.action,
		"PodNetworkCidr":  w.Config.Kubernetes.PodNetworkCidr,
		"NetworkPlugin":   networkPlugin,
		"KubeConfigs":     w.kubeConfigs,
		"JoinCommand":     joinCommand,
		"JoinCommandFile": w.Artifacts.JoinCommand(),
	})
	if err != nil {
		return err
	}
	return w.Host.ReplaceFile(w.Artifacts.ClusterInfo(), []byte(report), 0644)
}

func (w *Workflow) readAPIEndpoint() string {
	data, err := w.Host.ReadFile(constant.KubeAdminConfPath)
	if err != nil {
		log.Debugf("API endpoint is unknown: %v", err)
		return "unknown"
	}
	config, err := kube.ParseKubeConfig(data)
	if err != nil || config.Server() == "" {
		log.Debugf("API endpoint is unknown: %v", err)
		return "unknown"
	}
	return config.Server()
}
