package core

import (
	"context"
	"fmt"

	"com.github.tunahansezen/kubeboot/pkg/kube"
	"com.github.tunahansezen/kubeboot/pkg/retry"
	"com.github.tunahansezen/kubeboot/pkg/util"
	log "github.com/sirupsen/logrus"
)

// WaitForAPI polls the API server readiness endpoint at a fixed interval.
func (w *Workflow) WaitForAPI(ctx context.Context) error {
	cfg := w.Config.APIWait
	_, err := retry.Do(ctx, func(attempt int) error {
		util.UpdateSpinner(fmt.Sprintf("Waiting for the API server (%d/%d)", attempt, cfg.Attempts))
		_, err := w.Host.Run(ctx, kube.ReadyCommand())
		return err
	}, retry.WithAttempts(cfg.Attempts), retry.WithDelay(cfg.Interval))
	return err
}

// InstallNetworkPlugin applies the Calico manifest. It returns the number of attempts made.
func (w *Workflow) InstallNetworkPlugin(ctx context.Context) (int, error) {
	cfg := w.Config.Calico
	url := cfg.ExactUrl(w.Config.Kubernetes.Version)
	attempts, err := retry.Do(ctx, func(attempt int) error {
		util.UpdateSpinner(fmt.Sprintf("Applying %s (%d/%d)", url, attempt, cfg.Attempts))
		_, err := w.Host.Run(ctx, kube.ApplyCommand(url))
		return err
	}, retry.WithAttempts(cfg.Attempts), retry.WithDelay(cfg.RetryDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			log.Debugf("Applying calico failed on attempt %d: %v. It will be retried in %s", attempt, err, cfg.RetryDelay)
		}))
	if err != nil {
		return attempts, err
	}
	util.UpdateSpinner(fmt.Sprintf("Waiting %s for calico pods", cfg.SettleDelay))
	if err = w.Sleep(ctx, cfg.SettleDelay); err != nil {
		return attempts, err
	}
	return attempts, nil
}

func (w *Workflow) RemoveControlPlaneTaint(ctx context.Context) error {
	return kube.RemoveControlPlaneTaint(ctx, w.Host.Exec)
}
