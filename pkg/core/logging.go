package core

import (
	"io"
	logA "log"

	"github.com/fatih/color"
	"github.com/guumaster/logsymbols"
	log "github.com/sirupsen/logrus"
)

var (
	Debug bool
	Trace bool
)

type PlainFormatter struct {
}

func (f *PlainFormatter) Format(entry *log.Entry) ([]byte, error) {
	switch entry.Level {
	case log.PanicLevel, log.FatalLevel, log.ErrorLevel:
		return []byte(color.RedString("%s %s\n", logsymbols.Error, entry.Message)), nil
	case log.WarnLevel:
		return []byte(color.YellowString("%s %s\n", logsymbols.Warning, entry.Message)), nil
	case log.DebugLevel:
		return []byte(color.HiBlackString("%s\n", entry.Message)), nil
	case log.TraceLevel:
		return []byte(color.YellowString("%s\n", entry.Message)), nil
	}
	return []byte(color.CyanString("%s %s\n", logsymbols.Info, entry.Message)), nil
}

func toggleDebug() {
	logA.SetOutput(io.Discard)
	if Trace {
		log.SetLevel(log.TraceLevel)
	} else if Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(new(PlainFormatter))
}
