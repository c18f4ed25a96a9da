package templates

import (
	"github.com/lithammer/dedent"
	"text/template"
)

var (
	JoinCommandSh = template.Must(template.New("join-command.sh").Parse(
		dedent.Dedent(`#!/bin/sh
# Generated by kubeboot at {{ .Timestamp }} (run {{ .RunID }}).
# Run as root on a worker prepared with "kubeboot run worker".
set -e
{{ .JoinCommand }}
`)))
)
