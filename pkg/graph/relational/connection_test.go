package relational

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConnectionSkipsFilePragmasForInMemory(t *testing.T) {
	conn, err := openConnection(":memory:")
	require.NoError(t, err)
	defer conn.close()

	var journalMode string
	require.NoError(t, conn.db.QueryRowContext(context.Background(), `PRAGMA journal_mode`).Scan(&journalMode))
	assert.NotEqual(t, "wal", journalMode)
}

func TestOpenConnectionAppliesDefaultPragmasForFileBackedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	conn, err := openConnection(path)
	require.NoError(t, err)
	defer conn.close()
	defer os.Remove(path)

	ctx := context.Background()
	var journalMode, syncMode, tempStore string
	require.NoError(t, conn.db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	require.NoError(t, conn.db.QueryRowContext(ctx, `PRAGMA synchronous`).Scan(&syncMode))
	assert.Equal(t, "1", syncMode) // NORMAL

	require.NoError(t, conn.db.QueryRowContext(ctx, `PRAGMA temp_store`).Scan(&tempStore))
	assert.Equal(t, "2", tempStore) // MEMORY
}

func TestConnectionTracksPrepareAndStatementCacheHitMiss(t *testing.T) {
	conn, err := openConnection(":memory:")
	require.NoError(t, err)
	defer conn.close()

	ctx := context.Background()
	_, err = conn.exec(ctx, `CREATE TABLE widgets(id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	_, err = conn.exec(ctx, `INSERT INTO widgets DEFAULT VALUES`)
	require.NoError(t, err)
	_, err = conn.exec(ctx, `INSERT INTO widgets DEFAULT VALUES`)
	require.NoError(t, err)

	stats := conn.statementStats()
	assert.Equal(t, uint64(2), stats.StmtMisses) // CREATE TABLE, then the first INSERT
	assert.Equal(t, uint64(1), stats.StmtHits)    // the second, identical INSERT
	assert.Equal(t, uint64(2), stats.Prepares)
}

func TestConnectionClassifiesTransactionControlStatements(t *testing.T) {
	conn, err := openConnection(":memory:")
	require.NoError(t, err)
	defer conn.close()

	err = withTx(context.Background(), conn, func(tx execer) error {
		_, err := tx.ExecContext(context.Background(), `CREATE TABLE t(id INTEGER PRIMARY KEY)`)
		return err
	})
	require.NoError(t, err)

	stats := conn.statementStats()
	assert.Equal(t, uint64(1), stats.Begins)
	assert.Equal(t, uint64(1), stats.Commits)
	assert.Equal(t, uint64(0), stats.Rollbacks)
}

func TestConnectionCountsRollbackOnError(t *testing.T) {
	conn, err := openConnection(":memory:")
	require.NoError(t, err)
	defer conn.close()

	err = withTx(context.Background(), conn, func(tx execer) error {
		return assert.AnError
	})
	require.Error(t, err)

	stats := conn.statementStats()
	assert.Equal(t, uint64(1), stats.Rollbacks)
	assert.Equal(t, uint64(0), stats.Commits)
}
