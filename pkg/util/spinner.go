package util

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/guumaster/logsymbols"
)

var (
	spin *spinner.Spinner
)

func GetSpinner() *spinner.Spinner {
	return spin
}

// StartSpinner shows suffix next to a spinner. Without a terminal on stdout only the final line is printed.
func StartSpinner(suffix string) {
	StopSpinner("", logsymbols.Success)
	spin = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	spin.Suffix = fmt.Sprintf(" %s", suffix)
	if IsTerminal(os.Stdout) {
		spin.Start()
	}
}

func UpdateSpinner(suffix string) {
	if spin == nil {
		return
	}
	spin.Suffix = fmt.Sprintf(" %s", suffix)
}

func StopSpinner(finalMsg string, symbol logsymbols.Symbol) {
	if spin == nil {
		return
	}
	if finalMsg != "" {
		spin.FinalMSG = fmt.Sprintf("%s %s\n", symbol, finalMsg)
	} else {
		spin.FinalMSG = fmt.Sprintf("%s%s\n", symbol, spin.Suffix)
	}
	if spin.Active() {
		spin.Stop()
	} else {
		fmt.Print(spin.FinalMSG)
	}
	spin = nil
}
