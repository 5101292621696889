package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forksh/forksh/internal/command"
	"github.com/forksh/forksh/internal/stdio"
)

func TestNewRejectsEmptyCommandList(t *testing.T) {
	_, err := New(nil, false)
	require.Error(t, err)
	var emptyErr *EmptyPipelineError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestParseWiresIntoNew(t *testing.T) {
	pl, err := Parse("ls -la")
	require.NoError(t, err)
	assert.False(t, pl.Background())
	require.Len(t, pl.Commands(), 1)
	assert.Equal(t, "ls", pl.Commands()[0].Program())
}

func TestParsePropagatesParseError(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestStringIncludesBackgroundMarker(t *testing.T) {
	pl, err := Parse("sleep 1 &")
	require.NoError(t, err)
	assert.Equal(t, "sleep 1 &", pl.String())
}

func TestStringJoinsPipelineStages(t *testing.T) {
	pl, err := Parse("ls | wc")
	require.NoError(t, err)
	assert.Equal(t, "ls | wc", pl.String())
}

func TestSpawnSingleCommandAndWait(t *testing.T) {
	pl, err := Parse("true")
	require.NoError(t, err)

	pids, err := pl.Spawn()
	require.NoError(t, err)
	require.Len(t, pids, 1)
	assert.Greater(t, pl.Pgid(), 0)

	require.NoError(t, pl.Wait())
	assert.True(t, pl.IsCompleted())
}

func TestSpawnTwoStagePipeline(t *testing.T) {
	dir := t.TempDir()
	outPath := dir + "/cat_out.txt"

	producer, err := buildCommands(t, "echo", []string{"hello", "world"})
	require.NoError(t, err)
	catCmd, err := command.New("cat")
	require.NoError(t, err)
	require.NoError(t, catCmd.SetStdout(stdio.RedirectTo(outPath)))

	pl, err := New([]*command.Command{producer, catCmd}, false)
	require.NoError(t, err)

	_, err = pl.Spawn()
	require.NoError(t, err)
	require.NoError(t, pl.Wait())
	assert.True(t, pl.IsCompleted())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestIsCompletedFalseWhileRunning(t *testing.T) {
	pl, err := Parse("sleep 1")
	require.NoError(t, err)

	_, err = pl.Spawn()
	require.NoError(t, err)
	assert.False(t, pl.IsCompleted())
	require.NoError(t, pl.Wait())
	assert.True(t, pl.IsCompleted())
}

// TestSpawnMissingProgramInNonLastPositionStillRunsRest exercises spec
// §4.3/§4.4's contract that a missing program anywhere in a pipeline is
// invisible to the launcher: Spawn succeeds for every stage (a fork always
// succeeds), and the surviving stage still runs to completion.
func TestSpawnMissingProgramInNonLastPositionStillRunsRest(t *testing.T) {
	dir := t.TempDir()
	outPath := dir + "/out.txt"

	missing, err := command.New("definitely-not-a-real-program-xyz")
	require.NoError(t, err)
	cat, err := command.New("cat")
	require.NoError(t, err)
	require.NoError(t, cat.SetStdout(stdio.RedirectTo(outPath)))

	pl, err := New([]*command.Command{missing, cat}, false)
	require.NoError(t, err)

	pids, err := pl.Spawn()
	require.NoError(t, err)
	require.Len(t, pids, 2)
	assert.Greater(t, pl.Pgid(), 0)

	require.NoError(t, pl.Wait())
	assert.True(t, pl.IsCompleted())
}

// TestSpawnMissingProgramInLastPositionStillReaps exercises the same
// contract with the missing program last: the already-spawned upstream
// command must still be fully reaped, and Pgid() must still report the
// group it belongs to.
func TestSpawnMissingProgramInLastPositionStillReaps(t *testing.T) {
	producer, err := buildCommands(t, "echo", []string{"hi"})
	require.NoError(t, err)
	missing, err := command.New("definitely-not-a-real-program-xyz")
	require.NoError(t, err)

	pl, err := New([]*command.Command{producer, missing}, false)
	require.NoError(t, err)

	pids, err := pl.Spawn()
	require.NoError(t, err)
	require.Len(t, pids, 2)
	assert.Greater(t, pl.Pgid(), 0)

	require.NoError(t, pl.Wait())
	assert.True(t, pl.IsCompleted())
}

func buildCommands(t *testing.T, program string, args []string) (*command.Command, error) {
	t.Helper()
	cmd, err := command.New(program)
	if err != nil {
		return nil, err
	}
	if _, err := cmd.Args(args); err != nil {
		return nil, err
	}
	return cmd, nil
}
