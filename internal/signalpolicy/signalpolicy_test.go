package signalpolicy

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

// InstallShellPolicy/InstallChildDefault mutate process-wide signal
// disposition, so these tests only confirm the two calls are safe to
// sequence (install, then reset, then reinstall) without asserting on
// observed disposition — that would require sending real signals to the
// test binary itself, which is what command_test's real-process Spawn
// tests already cover indirectly via isBenignRace's sibling path.
func TestInstallShellPolicyThenChildDefaultIsSafeToSequence(t *testing.T) {
	assert.NotPanics(t, func() {
		InstallShellPolicy()
		InstallChildDefault()
		InstallShellPolicy()
	})
}

func TestControlledSetIsTheFiveTtySignals(t *testing.T) {
	assert.ElementsMatch(t, []os.Signal{
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTSTP,
		syscall.SIGTTIN,
		syscall.SIGTTOU,
	}, Controlled)
}
