package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sqlchunker/internal/indexer"
	"github.com/dshills/sqlchunker/internal/report"
)

const refundProc = `CREATE PROCEDURE dbo.usp_RefundPayment
    @PaymentId INT
AS
BEGIN
    DECLARE @Amount DECIMAL(10,2)

    SELECT @Amount = Amount FROM dbo.Payments WHERE PaymentId = @PaymentId

    BEGIN TRANSACTION
        UPDATE dbo.Payments SET Status = 'refunded' WHERE PaymentId = @PaymentId
        INSERT INTO dbo.Refunds (PaymentId, Amount) VALUES (@PaymentId, @Amount)
    COMMIT TRANSACTION
END
`

// testEnv is a project directory with one script and an isolated index
type testEnv struct {
	dir    string
	script string
	db     string
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()
	script := filepath.Join(dir, "billing", "refund.sql")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0755))
	require.NoError(t, os.WriteFile(script, []byte(refundProc), 0644))

	return testEnv{
		dir:    dir,
		script: script,
		db:     filepath.Join(t.TempDir(), "index.db"),
	}
}

// run executes the command tree and returns stdout and stderr
func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--project", e.dir, "--db", e.db, "--color", "off"}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_Markdown(t *testing.T) {
	env := setupEnv(t)

	stdout, stderr, err := env.run(t, "analyze", env.script)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Lines: 1-")
	assert.NotEmpty(t, report.ExtractLineRanges(stdout))
	assert.Contains(t, stderr, "13 lines")
	assert.Contains(t, stderr, "no gaps or overlaps")
}

func TestAnalyze_JSONToFile(t *testing.T) {
	env := setupEnv(t)
	output := filepath.Join(t.TempDir(), "refund.json")

	stdout, stderr, err := env.run(t, "analyze", env.script, "--format", "json", "--strategy", "strict_logical", "-o", output)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	export, err := report.ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "strict_logical", export.Strategy)
}

func TestAnalyze_Errors(t *testing.T) {
	env := setupEnv(t)

	_, _, err := env.run(t, "analyze", filepath.Join(env.dir, "missing.sql"))
	assert.Error(t, err)

	_, _, err = env.run(t, "analyze", env.script, "--format", "xml")
	assert.Error(t, err)

	_, _, err = env.run(t, "analyze", env.script, "--min-size", "90", "--target-size", "30")
	assert.Error(t, err)

	_, _, err = env.run(t, "analyze")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	env := setupEnv(t)

	t.Run("script", func(t *testing.T) {
		stdout, _, err := env.run(t, "verify", env.script)
		require.NoError(t, err)
		assert.Contains(t, stdout, "13/13 lines")
	})

	t.Run("json export against script", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "refund.json")
		_, _, err := env.run(t, "analyze", env.script, "--format", "json", "-o", output)
		require.NoError(t, err)

		_, _, err = env.run(t, "verify", output, "--script", env.script)
		assert.NoError(t, err)
	})

	t.Run("guide with gap", func(t *testing.T) {
		guide := filepath.Join(t.TempDir(), "guide.md")
		require.NoError(t, os.WriteFile(guide, []byte("   - Lines: 1-5\n   - Lines: 8-13\n"), 0644))

		stdout, _, err := env.run(t, "verify", guide, "--total-lines", "13")
		assert.ErrorIs(t, err, ErrCoverageFailed)
		assert.Contains(t, stdout, "gap      lines 6-7")
	})

	t.Run("guide without length", func(t *testing.T) {
		guide := filepath.Join(t.TempDir(), "guide.md")
		require.NoError(t, os.WriteFile(guide, []byte("   - Lines: 1-5\n   - Lines: 6-9\n"), 0644))

		stdout, _, err := env.run(t, "verify", guide)
		require.NoError(t, err)
		assert.Contains(t, stdout, "9/9 lines")
	})
}

func TestIndexAndSearch(t *testing.T) {
	env := setupEnv(t)

	_, stderr, err := env.run(t, "index", env.dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Found 1 SQL scripts")
	assert.Contains(t, stderr, "Indexing complete")

	stdout, _, err := env.run(t, "search", env.dir, "Refunds")
	require.NoError(t, err)
	assert.Contains(t, stdout, "billing/refund.sql:")

	stdout, _, err = env.run(t, "search", env.dir, "Refunds", "--type", "cursor")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No chunks match")

	_, stderr, err = env.run(t, "index", env.dir, "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestSearch_NotIndexed(t *testing.T) {
	env := setupEnv(t)

	_, _, err := env.run(t, "search", env.dir, "Refunds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not indexed")
}

func TestVersion(t *testing.T) {
	env := setupEnv(t)

	stdout, _, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sqlchunker "+Version)
	assert.Contains(t, stdout, "Index schema:")
}

func TestInvalidColorFlag(t *testing.T) {
	env := setupEnv(t)

	_, _, err := env.run(t, "version", "--color", "rainbow")
	assert.Error(t, err)
}

func TestCLIProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewCLIProgressReporter(&buf, false, true)

	r.OnDiscoveryComplete(2)
	r.OnScriptProcessed("a.sql", indexer.OutcomeIndexed)
	r.OnScriptProcessed("b.sql", indexer.OutcomeFailed)
	r.OnComplete(&indexer.Statistics{
		ScriptsIndexed: 1,
		ScriptsFailed:  1,
		ChunksCreated:  4,
		ErrorMessages:  []string{"b.sql: permission denied"},
	})

	out := buf.String()
	assert.Contains(t, out, "Found 2 SQL scripts")
	assert.Contains(t, out, "indexed  a.sql")
	assert.Contains(t, out, "failed   b.sql")
	assert.Contains(t, out, "4 chunks")
	assert.Contains(t, out, "1 scripts failed")
	assert.Contains(t, out, "b.sql: permission denied")

	var quiet bytes.Buffer
	q := NewCLIProgressReporter(&quiet, true, false)
	q.OnDiscoveryComplete(3)
	q.OnScriptProcessed("a.sql", indexer.OutcomeIndexed)
	q.OnComplete(&indexer.Statistics{})
	assert.Empty(t, quiet.String())
}
