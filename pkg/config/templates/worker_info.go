package templates

import (
	"github.com/lithammer/dedent"
	"text/template"
)

var (
	WorkerInfo = template.Must(template.New("worker-info.txt").Parse(
		dedent.Dedent(`Kubernetes worker information
=============================
Generated:           {{ .Timestamp }}
Run ID:              {{ .RunID }}
Hostname:            {{ .Hostname }}
Node IP:             {{ .NodeIP }}
Kubernetes version:  {{ .KubeVersion }}
Join status:         {{ .JoinStatus }}
{{ if .Joined }}
This node is part of a cluster. Check it from the master with:
  kubectl get nodes -o wide
{{ else }}
Next steps:
  1. Copy {{ .JoinCommandFile }} from the master node.
  2. Run it as root on this node, or rerun kubeboot with KUBEBOOT_JOIN_COMMAND set.
{{ end -}}
`)))
)
