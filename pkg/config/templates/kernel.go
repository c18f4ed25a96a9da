package templates

import (
	"github.com/lithammer/dedent"
	"text/template"
)

var (
	ModulesLoadConf = template.Must(template.New("modules-load.conf").Parse(
		dedent.Dedent(`{{ range .Modules }}{{ . }}
{{ end -}}
`)))

	SysctlConf = template.Must(template.New("sysctl.conf").Parse(
		dedent.Dedent(`net.bridge.bridge-nf-call-iptables  = 1
net.bridge.bridge-nf-call-ip6tables = 1
net.ipv4.ip_forward                 = 1
`)))
)
