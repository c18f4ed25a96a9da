package templates

import (
	"github.com/lithammer/dedent"
	"text/template"
)

var (
	YumRepo = template.Must(template.New("yum.repo").Parse(
		dedent.Dedent(`[{{ .Name }}]
name={{ .Title }}
baseurl={{ .Address }}
enabled=1
{{- if .Key }}
gpgcheck=1
gpgkey={{ .Key }}
{{- else }}
gpgcheck=0
{{- end }}
{{- if .Exclude }}
exclude={{ .Exclude }}
{{- end }}
`)))
)
