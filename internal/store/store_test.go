package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bspitems/internal/extract"
)

// fakeTx records the statements and copied rows of one transaction.
// Methods not overridden panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	execs      []string
	copied     [][]any
	copyTable  pgx.Identifier
	copyErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copyTable = table
	for src.Next() {
		row, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, row)
	}
	return int64(len(f.copied)), src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func TestReplace_CopiesRows(t *testing.T) {
	tx := &fakeTx{}
	s := New(&fakeDB{tx: tx}, "bsp_items")

	items := []extract.Item{
		{ClassName: "weapon_railgun", FriendlyName: "Railgun", ItemType: "weapon", X: "1", Y: "2", Z: "3"},
		{ClassName: "item_quad", FriendlyName: "Quad Damage", ItemType: "powerup", X: "N/A", Y: "N/A", Z: "N/A"},
	}

	n, err := s.Replace(context.Background(), "q2dm1.bsp", "The Edge", items)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.True(t, tx.committed)
	assert.Equal(t, pgx.Identifier{"bsp_items"}, tx.copyTable)

	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0], `DELETE FROM "bsp_items"`)

	require.Len(t, tx.copied, 2)
	assert.Equal(t, []any{"q2dm1.bsp", "The Edge", "Railgun", "weapon_railgun", "weapon", "1", "2", "3"}, tx.copied[0])
}

func TestReplace_CopyFailureRollsBack(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("connection reset")}
	s := New(&fakeDB{tx: tx}, "bsp_items")

	_, err := s.Replace(context.Background(), "q2dm1.bsp", "The Edge", []extract.Item{{ClassName: "item_quad"}})
	require.Error(t, err)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestReplace_BeginFailure(t *testing.T) {
	s := New(&fakeDB{beginErr: errors.New("connection refused")}, "bsp_items")

	_, err := s.Replace(context.Background(), "q2dm1.bsp", "x", nil)
	assert.ErrorContains(t, err, "connection refused")
}

func TestEnsureTable(t *testing.T) {
	tx := &fakeTx{}
	s := New(&fakeDB{tx: tx}, "bsp_items")

	require.NoError(t, s.EnsureTable(context.Background()))
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0], `CREATE TABLE IF NOT EXISTS "bsp_items"`)
	assert.True(t, tx.committed)
}
