package cluster

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const menu = `An existing Kubernetes control plane was found on this host.
  1) Reset        wipe it and bootstrap a new cluster
  2) Use existing keep it and continue
  3) Abort        stop without changes
`

// Resolver turns a Detection into an Action, asking the operator when a cluster already exists.
type Resolver struct {
	Prompter    Prompter
	Interactive bool
	Policy      Policy
	Out         io.Writer
}

func (r *Resolver) Resolve(ctx context.Context, d Detection) (Action, error) {
	if d.Result() == NoCluster {
		log.Debugf("No existing cluster found")
		return ActionFreshInit, nil
	}
	log.Warnf("Existing cluster found: %s", strings.Join(d.Signals(), ", "))
	if !r.Interactive {
		log.Warnf("Input is not interactive, continuing with the existing cluster")
		return ActionUseExisting, nil
	}

	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	m := NewMachine(r.Policy)
	for m.State() != Resolved {
		label := "Choose [1-3]"
		if m.State() == AwaitingChoice {
			_, _ = fmt.Fprint(out, menu)
		} else {
			label = fmt.Sprintf("Type %s to confirm reset", m.policy.ConfirmWord)
		}
		answer, err := r.Prompter.Prompt(ctx, label)
		var ev Event
		switch {
		case err == nil:
			ev = Line(answer)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ActionAbort, err
		case errors.Is(err, ErrInterrupted):
			ev = Interrupted()
		case errors.Is(err, io.EOF), errors.Is(err, ErrTimeout):
			ev = EmptyRead()
		default:
			log.Debugf("Prompt read failed: %v", err)
			ev = EmptyRead()
		}

		switch m.Feed(ev) {
		case OutcomeEmptyRead:
			log.Errorf("No answer received (%d/%d)", m.Attempts(), m.policy.MaxAttempts)
		case OutcomeInvalidChoice:
			log.Errorf("Invalid choice \"%s\" (%d/%d)", strings.TrimSpace(ev.Text), m.Attempts(), m.policy.MaxAttempts)
		case OutcomeConfirmRequired:
			log.Warnf("Reset deletes the cluster state, certificates and etcd data on this host")
		case OutcomeResetCancelled:
			log.Infof("Reset cancelled")
		case OutcomeAutoSelected:
			log.Warnf("No usable answer after %s, continuing with the existing cluster", m.Reason())
		case OutcomeInterrupted:
			log.Infof("Interrupted")
		}
	}
	log.Infof("Cluster action: %s", m.Action())
	return m.Action(), nil
}
