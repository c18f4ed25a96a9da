package os

import (
	"context"
	"fmt"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/retry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ChangeServiceStatus runs "systemctl <status> <service>", retrying a failed call.
func (h *Host) ChangeServiceStatus(ctx context.Context, service, status string) error {
	command := fmt.Sprintf("systemctl %s %s", status, service)
	_, err := retry.Do(ctx, func(int) error {
		_, err := h.Exec.Run(ctx, command)
		return err
	}, retry.WithAttempts(h.ServiceAttempts), retry.WithDelay(h.ServiceRetryDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			log.Debugf("\"%s\" is failed. It will be retried in %s", command, h.ServiceRetryDelay)
		}))
	if err != nil {
		return errors.Wrapf(err, "%s %s is failed", service, status)
	}
	log.Debugf("%s %s is successful.", service, status)
	return nil
}

func (h *Host) IsServiceActive(ctx context.Context, service string) bool {
	out, err := h.Exec.Run(ctx, fmt.Sprintf("systemctl is-active %s", service))
	return err == nil && strings.TrimSpace(out) == "active"
}
