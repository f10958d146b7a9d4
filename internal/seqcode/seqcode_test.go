package seqcode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	db.MustExec(`CREATE TABLE suju_mst (suju_cd TEXT UNIQUE, amt REAL)`)
	return db
}

func marchSpec() Spec {
	return Spec{Table: "suju_mst", Column: "suju_cd", Prefix: "B2503D"}
}

func TestPrefix(t *testing.T) {
	date := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)

	p, err := Prefix('B', date, 'D')
	require.NoError(t, err)
	assert.Equal(t, "B2503D", p)

	p, err = Prefix('S', time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 'F')
	require.NoError(t, err)
	assert.Equal(t, "S2412F", p)

	_, err = Prefix('b', date, 'D')
	assert.Error(t, err)
	_, err = Prefix('B', date, '7')
	assert.Error(t, err)
}

func TestNextStartsAtOne(t *testing.T) {
	db := openTestDB(t)

	code, err := Next(context.Background(), db, marchSpec())
	require.NoError(t, err)
	assert.Equal(t, "B2503D00001", code)
}

func TestNextContinuesSequence(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2503D00041')`)

	code, err := Next(context.Background(), db, marchSpec())
	require.NoError(t, err)
	assert.Equal(t, "B2503D00042", code)
}

func TestNextIgnoresOtherPrefixes(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2502D00099')`)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('S2503F00017')`)

	code, err := Next(context.Background(), db, marchSpec())
	require.NoError(t, err)
	assert.Equal(t, "B2503D00001", code)
}

func TestNextMalformedCode(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2503DXXXXX')`)

	_, err := Next(context.Background(), db, marchSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestNextExhausted(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2503D99999')`)

	_, err := Next(context.Background(), db, marchSpec())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestNextRejectsBadSpec(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, spec := range []Spec{
		{Table: "suju_mst; DROP TABLE suju_mst", Column: "suju_cd", Prefix: "B2503D"},
		{Table: "suju_mst", Column: "suju_cd--", Prefix: "B2503D"},
		{Table: "suju_mst", Column: "suju_cd", Prefix: "B2503D%"},
		{Table: "suju_mst", Column: "suju_cd", Prefix: ""},
	} {
		_, err := Next(ctx, db, spec)
		assert.Error(t, err, "spec %+v", spec)
	}
}

func TestInsertPersistsCode(t *testing.T) {
	db := openTestDB(t)

	code, err := Insert(context.Background(), db, marchSpec(), func(code string) error {
		_, err := db.Exec(`INSERT INTO suju_mst (suju_cd, amt) VALUES (?, 10)`, code)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "B2503D00001", code)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM suju_mst WHERE suju_cd = 'B2503D00001'`))
	assert.Equal(t, 1, n)
}

// A competing writer grabs the computed code first; the retry re-reads
// the maximum and lands on the next free one.
func TestInsertRetriesPastCollision(t *testing.T) {
	db := openTestDB(t)

	raced := false
	code, err := Insert(context.Background(), db, marchSpec(), func(code string) error {
		if !raced {
			raced = true
			db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES (?)`, code)
		}
		_, err := db.Exec(`INSERT INTO suju_mst (suju_cd) VALUES (?)`, code)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "B2503D00002", code)
}

func TestInsertGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := openTestDB(t)

	calls := 0
	_, err := Insert(context.Background(), db, marchSpec(), func(string) error {
		calls++
		return ErrCollision
	})
	assert.ErrorIs(t, err, ErrCollision)
	assert.Equal(t, 5, calls)
}

func TestInsertStopsOnOtherErrors(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("disk on fire")
	calls := 0
	_, err := Insert(context.Background(), db, marchSpec(), func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

type mssqlErr struct{ number int32 }

func (e mssqlErr) Error() string         { return fmt.Sprintf("mssql: error %d", e.number) }
func (e mssqlErr) SQLErrorNumber() int32 { return e.number }

func TestIsCollision(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2503D00001')`)
	_, dupErr := db.Exec(`INSERT INTO suju_mst (suju_cd) VALUES ('B2503D00001')`)
	require.Error(t, dupErr)

	assert.True(t, IsCollision(dupErr))
	assert.True(t, IsCollision(ErrCollision))
	assert.True(t, IsCollision(fmt.Errorf("insert: %w", ErrCollision)))
	assert.True(t, IsCollision(mssqlErr{2601}))
	assert.True(t, IsCollision(mssqlErr{2627}))
	assert.False(t, IsCollision(mssqlErr{547}))
	assert.False(t, IsCollision(errors.New("connection reset")))
	assert.False(t, IsCollision(nil))
}
