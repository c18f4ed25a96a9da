package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"com.github.tunahansezen/kubeboot/pkg/cmd"
	_ "com.github.tunahansezen/kubeboot/pkg/cmd/config"
	_ "com.github.tunahansezen/kubeboot/pkg/cmd/run"
	kos "com.github.tunahansezen/kubeboot/pkg/os"
)

var version = "TMP_VERSION"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.Execute(ctx, version)
	kos.Exit("", 0)
}
