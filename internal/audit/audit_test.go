package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mesgw/internal/tenant"
)

// mockProvider returns a provider whose connections are backed by fresh
// sqlmock handles; prime receives each mock before it is used.
func mockProvider(t *testing.T, prime func(mock sqlmock.Sqlmock)) (*tenant.Provider, *[]sqlmock.Sqlmock) {
	t.Helper()
	reg := tenant.NewRegistry(tenant.Defaults{Host: "h", Port: 1433, Encoding: "utf-8"}, nil)
	p := tenant.NewProvider(reg, zap.NewNop())
	mocks := &[]sqlmock.Sqlmock{}
	p.Open = func(ctx context.Context, cfg tenant.Config) (*sqlx.DB, error) {
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		prime(mock)
		*mocks = append(*mocks, mock)
		return sqlx.NewDb(db, "sqlmock"), nil
	}
	return p, mocks
}

func TestRecordWritesUsageRow(t *testing.T) {
	p, mocks := mockProvider(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(`INSERT INTO api_usage_log`).
			WithArgs("api", "order register", "1.2.3.4", "HQ", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectClose()
	})
	l := &Logger{
		Provider: p,
		Log:      zap.NewNop(),
		Actor:    "api",
		CorpCode: "HQ",
		Labels:   map[string]string{"/api/insert/suju/register": "order register"},
	}

	l.Record(context.Background(), "acme", "/api/insert/suju/register", "1.2.3.4")

	require.Len(t, *mocks, 1)
	assert.NoError(t, (*mocks)[0].ExpectationsWereMet())
}

func TestRecordUsesRawPathWithoutLabel(t *testing.T) {
	p, mocks := mockProvider(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(`INSERT INTO api_usage_log`).
			WithArgs("api", "/api/select/vender/all", "9.9.9.9", "HQ", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectClose()
	})
	l := &Logger{Provider: p, Log: zap.NewNop(), Actor: "api", CorpCode: "HQ"}

	l.Record(context.Background(), "acme", "/api/select/vender/all", "9.9.9.9")

	require.Len(t, *mocks, 1)
	assert.NoError(t, (*mocks)[0].ExpectationsWereMet())
}

func TestRecordSkipsExcludedAndAnonymous(t *testing.T) {
	p, mocks := mockProvider(t, func(mock sqlmock.Sqlmock) {})
	l := &Logger{Provider: p, Log: zap.NewNop(), Actor: "api"}

	l.Record(context.Background(), "acme", "/", "1.1.1.1")
	l.Record(context.Background(), "acme", "/ws", "1.1.1.1")
	l.Record(context.Background(), "acme", "/api/select/file/download/a.pdf", "1.1.1.1")
	l.Record(context.Background(), "", "/api/select/vender/all", "1.1.1.1")

	assert.Empty(t, *mocks, "excluded requests must not open a connection")
}

func TestRecordSwallowsInsertFailure(t *testing.T) {
	p, _ := mockProvider(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(`INSERT INTO api_usage_log`).
			WillReturnError(errors.New("deadlock victim"))
		mock.ExpectClose()
	})
	l := &Logger{Provider: p, Log: zap.NewNop(), Actor: "api"}

	// must return normally, nothing to assert beyond not panicking
	l.Record(context.Background(), "acme", "/api/select/vender/all", "1.1.1.1")
}

func TestRecordSwallowsConnectFailure(t *testing.T) {
	reg := tenant.NewRegistry(tenant.Defaults{Host: "h", Port: 1, Encoding: "utf-8"}, nil)
	p := tenant.NewProvider(reg, zap.NewNop())
	p.Open = func(ctx context.Context, cfg tenant.Config) (*sqlx.DB, error) {
		return nil, errors.New("no route to host")
	}
	l := &Logger{Provider: p, Log: zap.NewNop(), Actor: "api"}

	l.Record(context.Background(), "acme", "/api/select/vender/all", "1.1.1.1")
}

func TestRecordWarnsOncePerMissingTable(t *testing.T) {
	p, _ := mockProvider(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectExec(`INSERT INTO api_usage_log`).
			WillReturnError(errors.New("no such table: api_usage_log"))
		mock.ExpectClose()
	})
	core, logs := observer.New(zap.WarnLevel)
	l := &Logger{Provider: p, Log: zap.New(core), Actor: "api"}

	l.Record(context.Background(), "acme", "/api/select/vender/all", "1.1.1.1")
	l.Record(context.Background(), "acme", "/api/select/vender/all", "1.1.1.1")
	l.Record(context.Background(), "beta", "/api/select/vender/all", "1.1.1.1")

	warned := map[string]int{}
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			if f.Key == "tenant" {
				warned[f.String]++
			}
		}
	}
	assert.Equal(t, map[string]int{"acme": 1, "beta": 1}, warned)
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded("/"))
	assert.True(t, Excluded("/ws"))
	assert.True(t, Excluded("/api/select/file/download/x.xlsx"))
	assert.True(t, Excluded("/static/app.js"))
	assert.False(t, Excluded("/api/select/vender/all"))
	assert.False(t, Excluded("/api/insert/suju/register"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:55123"
	assert.Equal(t, "10.1.2.3", ClientIP(r))

	r.Header.Set("X-Real-IP", "172.16.0.7")
	assert.Equal(t, "172.16.0.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(r))
}

type mssqlErr struct{ number int32 }

func (e mssqlErr) Error() string         { return fmt.Sprintf("mssql: error %d", e.number) }
func (e mssqlErr) SQLErrorNumber() int32 { return e.number }

func TestIsMissingTable(t *testing.T) {
	assert.True(t, isMissingTable(mssqlErr{208}))
	assert.False(t, isMissingTable(mssqlErr{2627}))
	assert.True(t, isMissingTable(errors.New("no such table: api_usage_log")))
	assert.False(t, isMissingTable(errors.New("syntax error")))
}
