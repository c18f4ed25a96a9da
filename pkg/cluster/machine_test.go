package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(m *Machine, events ...Event) []Outcome {
	var outcomes []Outcome
	for _, ev := range events {
		outcomes = append(outcomes, m.Feed(ev))
	}
	return outcomes
}

func TestParseChoice(t *testing.T) {
	for _, in := range []string{"1", "reset", " R ", "RESET"} {
		assert.Equal(t, ChoiceReset, ParseChoice(in), in)
	}
	for _, in := range []string{"2", "use", "U", "existing", "Existing\t"} {
		assert.Equal(t, ChoiceUseExisting, ParseChoice(in), in)
	}
	for _, in := range []string{"3", "abort", "A", "q"} {
		assert.Equal(t, ChoiceAbort, ParseChoice(in), in)
	}
	for _, in := range []string{"", "4", "yes", "res"} {
		assert.Equal(t, ChoiceInvalid, ParseChoice(in), in)
	}
}

func TestMachine_ThreeEmptyReadsSelectUseExisting(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	outcomes := feedAll(m, EmptyRead(), Line("   "), EmptyRead())

	assert.Equal(t, []Outcome{OutcomeEmptyRead, OutcomeEmptyRead, OutcomeAutoSelected}, outcomes)
	assert.Equal(t, Resolved, m.State())
	assert.Equal(t, ActionUseExisting, m.Action())
	assert.Equal(t, "3 consecutive empty reads", m.Reason())
}

func TestMachine_EmptyReadsMustBeConsecutive(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	outcomes := feedAll(m, EmptyRead(), EmptyRead(), Line("9"), EmptyRead())

	assert.Equal(t, []Outcome{OutcomeEmptyRead, OutcomeEmptyRead, OutcomeInvalidChoice, OutcomeEmptyRead}, outcomes)
	assert.Equal(t, AwaitingChoice, m.State())
	assert.Equal(t, 4, m.Attempts())
}

func TestMachine_FiveFailedAttemptsSelectUseExisting(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	outcomes := feedAll(m, Line("x"), Line("y"), Line("z"), Line("7"), Line("maybe"))

	assert.Equal(t, OutcomeAutoSelected, outcomes[4])
	assert.Equal(t, ActionUseExisting, m.Action())
	assert.Equal(t, "5 failed attempts", m.Reason())
}

func TestMachine_DirectChoices(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	assert.Equal(t, OutcomeChosen, m.Feed(Line("2")))
	assert.Equal(t, ActionUseExisting, m.Action())

	m = NewMachine(DefaultPolicy())
	assert.Equal(t, OutcomeChosen, m.Feed(Line("q")))
	assert.Equal(t, ActionAbort, m.Action())
}

func TestMachine_ResetNeedsExactConfirmation(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	assert.Equal(t, OutcomeConfirmRequired, m.Feed(Line("1")))
	assert.Equal(t, AwaitingResetConfirm, m.State())

	assert.Equal(t, OutcomeResetCancelled, m.Feed(Line("yes")))
	assert.Equal(t, AwaitingChoice, m.State())
	assert.Equal(t, ActionNone, m.Action())
	assert.Equal(t, 1, m.Attempts())

	assert.Equal(t, OutcomeConfirmRequired, m.Feed(Line("reset")))
	assert.Equal(t, OutcomeChosen, m.Feed(Line("YES")))
	assert.Equal(t, ActionReset, m.Action())
	assert.True(t, m.Action().Bootstraps())
}

func TestMachine_CancelledResetsCountTowardsLimit(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	var last Outcome
	for i := 0; i < 5; i++ {
		assert.Equal(t, OutcomeConfirmRequired, m.Feed(Line("1")))
		last = m.Feed(Line("no"))
	}
	assert.Equal(t, OutcomeAutoSelected, last)
	assert.Equal(t, ActionUseExisting, m.Action())
}

func TestMachine_InterruptAborts(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	m.Feed(Line("1"))
	assert.Equal(t, OutcomeInterrupted, m.Feed(Interrupted()))
	assert.Equal(t, ActionAbort, m.Action())
	assert.Equal(t, OutcomeIgnored, m.Feed(Line("2")))
	assert.Equal(t, ActionAbort, m.Action())
}

func TestMachine_CustomConfirmWord(t *testing.T) {
	m := NewMachine(Policy{MaxAttempts: 2, MaxEmptyReads: 2, ConfirmWord: "WIPE"})
	m.Feed(Line("r"))
	assert.Equal(t, OutcomeResetCancelled, m.Feed(Line("YES")))
	m.Feed(Line("r"))
	assert.Equal(t, OutcomeAutoSelected, m.Feed(Line("nope")))
}
