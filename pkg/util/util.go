package util

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/guumaster/logsymbols"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
)

var (
	PasswordValidator = func(input string) error {
		if len(input) < 1 {
			return errors.New("need some input")
		}
		return nil
	}
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether answers can be read from the operator on stdin.
func IsInteractive() bool {
	return IsTerminal(os.Stdin)
}

func AskString(msg string, mask bool, validate func(string) error) (string, error) {
	StopSpinner("", logsymbols.Success)
	prompt := promptui.Prompt{
		Label:    msg,
		Validate: validate,
	}
	if mask {
		prompt.Mask = '*'
	}
	return prompt.Run()
}

func PrintWarning(msg string) {
	fmt.Printf("%s %s\n", logsymbols.Warning, msg)
}

func GetMajorVersion(version string) string {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return version
}

type TemplateVars map[string]interface{}

func RenderTemplate(tmpl *template.Template, variables map[string]interface{}) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func GetLastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			return line
		}
	}
	return ""
}
