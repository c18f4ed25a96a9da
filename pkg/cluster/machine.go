package cluster

import (
	"fmt"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/constant"
)

type Action int

const (
	ActionNone Action = iota
	ActionFreshInit
	ActionReset
	ActionUseExisting
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionFreshInit:
		return "fresh-init"
	case ActionReset:
		return "reset"
	case ActionUseExisting:
		return "use-existing"
	case ActionAbort:
		return "abort"
	}
	return "none"
}

// Bootstraps reports whether the action ends with a kubeadm init.
func (a Action) Bootstraps() bool {
	return a == ActionFreshInit || a == ActionReset
}

type Choice int

const (
	ChoiceInvalid Choice = iota
	ChoiceReset
	ChoiceUseExisting
	ChoiceAbort
)

// ParseChoice accepts the menu number or name, trimmed and case-insensitive.
func ParseChoice(input string) Choice {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "reset", "r":
		return ChoiceReset
	case "2", "use", "u", "existing":
		return ChoiceUseExisting
	case "3", "abort", "a", "q":
		return ChoiceAbort
	}
	return ChoiceInvalid
}

type State int

const (
	AwaitingChoice State = iota
	AwaitingResetConfirm
	Resolved
)

func (s State) String() string {
	switch s {
	case AwaitingChoice:
		return "awaiting-choice"
	case AwaitingResetConfirm:
		return "awaiting-reset-confirm"
	}
	return "resolved"
}

// Event is one read from the operator.
type Event struct {
	Text      string
	Empty     bool
	Interrupt bool
}

func Line(text string) Event {
	return Event{Text: text, Empty: strings.TrimSpace(text) == ""}
}

func EmptyRead() Event {
	return Event{Empty: true}
}

func Interrupted() Event {
	return Event{Interrupt: true}
}

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeEmptyRead
	OutcomeInvalidChoice
	OutcomeConfirmRequired
	OutcomeResetCancelled
	OutcomeChosen
	OutcomeAutoSelected
	OutcomeInterrupted
)

type Policy struct {
	MaxAttempts   int
	MaxEmptyReads int
	ConfirmWord   string
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   constant.DefaultPromptAttempts,
		MaxEmptyReads: constant.DefaultPromptEmptyReads,
		ConfirmWord:   constant.DefaultConfirmWord,
	}
}

// Machine resolves the existing-cluster menu from operator events. It always resolves within
// 2*MaxAttempts events.
type Machine struct {
	policy   Policy
	state    State
	action   Action
	attempts int
	empties  int
	reason   string
}

func NewMachine(policy Policy) *Machine {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.MaxEmptyReads < 1 {
		policy.MaxEmptyReads = 1
	}
	if policy.ConfirmWord == "" {
		policy.ConfirmWord = constant.DefaultConfirmWord
	}
	return &Machine{policy: policy, state: AwaitingChoice}
}

func (m *Machine) State() State {
	return m.state
}

// Action is ActionNone until the machine is resolved.
func (m *Machine) Action() Action {
	return m.action
}

// Attempts is the number of failed attempts so far.
func (m *Machine) Attempts() int {
	return m.attempts
}

// Reason explains an automatic selection.
func (m *Machine) Reason() string {
	return m.reason
}

func (m *Machine) Feed(ev Event) Outcome {
	if m.state == Resolved {
		return OutcomeIgnored
	}
	if ev.Interrupt {
		m.resolve(ActionAbort)
		return OutcomeInterrupted
	}
	switch m.state {
	case AwaitingChoice:
		if ev.Empty || strings.TrimSpace(ev.Text) == "" {
			m.fail(true)
			if m.exhausted() {
				return OutcomeAutoSelected
			}
			return OutcomeEmptyRead
		}
		switch ParseChoice(ev.Text) {
		case ChoiceReset:
			m.empties = 0
			m.state = AwaitingResetConfirm
			return OutcomeConfirmRequired
		case ChoiceUseExisting:
			m.resolve(ActionUseExisting)
			return OutcomeChosen
		case ChoiceAbort:
			m.resolve(ActionAbort)
			return OutcomeChosen
		}
		m.fail(false)
		if m.exhausted() {
			return OutcomeAutoSelected
		}
		return OutcomeInvalidChoice
	case AwaitingResetConfirm:
		if !ev.Empty && strings.TrimSpace(ev.Text) == m.policy.ConfirmWord {
			m.resolve(ActionReset)
			return OutcomeChosen
		}
		m.state = AwaitingChoice
		m.fail(ev.Empty || strings.TrimSpace(ev.Text) == "")
		if m.exhausted() {
			return OutcomeAutoSelected
		}
		return OutcomeResetCancelled
	}
	return OutcomeIgnored
}

func (m *Machine) fail(empty bool) {
	m.attempts++
	if empty {
		m.empties++
	} else {
		m.empties = 0
	}
}

func (m *Machine) exhausted() bool {
	switch {
	case m.empties >= m.policy.MaxEmptyReads:
		m.reason = fmt.Sprintf("%d consecutive empty reads", m.empties)
	case m.attempts >= m.policy.MaxAttempts:
		m.reason = fmt.Sprintf("%d failed attempts", m.attempts)
	default:
		return false
	}
	m.resolve(ActionUseExisting)
	return true
}

func (m *Machine) resolve(action Action) {
	m.action = action
	m.state = Resolved
}
