package templates

import (
	"github.com/lithammer/dedent"
	"text/template"
)

var (
	ClusterInfo = template.Must(template.New("cluster-info.txt").Parse(
		dedent.Dedent(`Kubernetes cluster information
==============================
Generated:           {{ .Timestamp }}
Run ID:              {{ .RunID }}
Master IP:           {{ .MasterIP }}
API endpoint:        {{ .APIEndpoint }}
Kubernetes version:  {{ .KubeVersion }}
Cluster action:      {{ .Action }}
Pod network CIDR:    {{ .PodNetworkCidr }}
Network plugin:      {{ .NetworkPlugin }}
Kubeconfig files:
{{- range .KubeConfigs }}
  - {{ . }}
{{- end }}

Join a worker node (run as root on the worker):
  {{ .JoinCommand }}

The join command is also saved to {{ .JoinCommandFile }}.
`)))
)
