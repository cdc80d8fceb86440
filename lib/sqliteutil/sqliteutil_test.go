package sqliteutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromDSN(t *testing.T) {
	require.Equal(t, Config{Url: "libsql://vplan.turso.io"}, FromDSN("libsql://vplan.turso.io"))
	require.Equal(t, Config{Url: "https://db.example"}, FromDSN("https://db.example"))
	require.Equal(t, Config{File: "<dev_state>/vplan.db"}, FromDSN("<dev_state>/vplan.db"))
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "vplan.db")

	db, err := Open(ctx, Config{File: path}, `create table if not exists t (v integer)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `insert into t (v) values (1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening applies the schema again without failing
	db, err = Open(ctx, Config{File: path}, `create table if not exists t (v integer)`)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `select count(*) from t`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestOpenEmptyConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{}, "")
	require.Error(t, err)
}
