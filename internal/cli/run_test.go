package cli_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskflow/internal/cli"
	"deskflow/internal/store"
	"deskflow/internal/testutil"
)

// run executes the CLI against an isolated data root and returns exit code,
// stdout, and stderr. XDG_CONFIG_HOME points at an empty directory so the
// machine's real global config never leaks in.
func run(t *testing.T, dataRoot string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer

	argv := append([]string{"deskflow", "--data-root", dataRoot}, args...)
	code := cli.Run(&out, &errOut, argv, map[string]string{"XDG_CONFIG_HOME": t.TempDir()})

	return code, out.String(), errOut.String()
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func Test_Run_Prints_Usage_Without_A_Command(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(&out, &errOut, []string{"deskflow"}, map[string]string{"XDG_CONFIG_HOME": t.TempDir()})

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Usage:")
}

func Test_Run_Rejects_Unknown_Command(t *testing.T) {
	t.Parallel()

	code, _, errOut := run(t, t.TempDir(), "frobnicate")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command")
}

func Test_Run_Rejects_Unknown_Global_Flag(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(&out, &errOut, []string{"deskflow", "--bogus"}, map[string]string{"XDG_CONFIG_HOME": t.TempDir()})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "unknown flag")
}

func Test_Status_Succeeds_On_Fresh_Data_Root(t *testing.T) {
	t.Parallel()

	code, out, _ := run(t, t.TempDir(), "status")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "projects")
	assert.Contains(t, out, "load: created")
}

func Test_Export_Then_Import_Round_Trip(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	target := t.TempDir()

	seed, _, err := store.Open(source, store.Options{
		Logger: log.New(io.Discard),
		Now:    testutil.NewClock().Now,
	})
	require.NoError(t, err)

	_, err = seed.UpsertProject(testutil.Project(1))
	require.NoError(t, err)

	_, err = seed.UpsertTask(testutil.Task(1))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "export.json")

	code, out, errOut := run(t, source, "export", file)
	require.Equal(t, 0, code, "export failed: %s", errOut)
	assert.Contains(t, out, "exported")

	code, out, errOut = run(t, target, "import", file)
	require.Equal(t, 0, code, "import failed: %s", errOut)
	assert.True(t, strings.Contains(out, "1 inserted"), "unexpected report: %s", out)

	merged, _, err := store.Open(target, store.Options{
		Logger: log.New(io.Discard),
		Now:    testutil.NewClock().Now,
	})
	require.NoError(t, err)

	assert.Len(t, merged.ListProjects(nil), 1)
	assert.Len(t, merged.ListTasks(nil), 1)
}

func Test_Export_JSON_Narrows_To_One_Collection(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	seed, _, err := store.Open(root, store.Options{
		Logger: log.New(io.Discard),
		Now:    testutil.NewClock().Now,
	})
	require.NoError(t, err)

	_, err = seed.UpsertProject(testutil.Project(1))
	require.NoError(t, err)

	_, err = seed.UpsertTask(testutil.Task(1))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "tasks.json")

	code, _, errOut := run(t, root, "export", "--collection=tasks", file)
	require.Equal(t, 0, code, errOut)

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"tasks": [`)
	assert.Contains(t, string(data), `"projects": []`)
	assert.NotContains(t, string(data), `"settings"`)
}

func Test_Export_CSV_Requires_A_Collection(t *testing.T) {
	t.Parallel()

	code, _, errOut := run(t, t.TempDir(), "export", "--format=csv", filepath.Join(t.TempDir(), "out.csv"))

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--collection")
}

func Test_Import_Fails_On_Invalid_Document(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, writeTestFile(file, `{"tasks": "not-an-array"}`))

	code, _, errOut := run(t, t.TempDir(), "import", file)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error:")
}

func Test_PrintConfig_Shows_Resolved_Data_Root(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	code, out, _ := run(t, root, "print-config")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, root)
	assert.Contains(t, out, "backup_retention_days: 7")
}

func Test_Backup_And_Prune_Succeed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	code, _, errOut := run(t, root, "status")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := run(t, root, "backup")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "backed up")

	code, _, errOut = run(t, root, "prune", "--keep-days=1")
	assert.Equal(t, 0, code, errOut)
}
