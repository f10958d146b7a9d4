package tenant

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Conn is an opened, encoding-configured handle to one tenant's database.
// It is owned exclusively by the request that opened it and must be closed
// on every exit path. Not shared across requests.
type Conn struct {
	DB          *sqlx.DB
	Tenant      Config
	stmtTimeout time.Duration
	enc         encoding.Encoding
	transcode   bool
}

func (c *Conn) Close() error { return c.DB.Close() }

// Rebind converts `?` placeholders to the driver's bind style.
func (c *Conn) Rebind(query string) string { return c.DB.Rebind(query) }

func (c *Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.stmtTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.stmtTimeout)
}

// Select runs a query and scans all rows into dest, with the statement
// timeout applied.
func (c *Conn) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.DB.SelectContext(ctx, dest, c.Rebind(query), args...)
}

// Get runs a query expected to yield one row.
func (c *Conn) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.DB.GetContext(ctx, dest, c.Rebind(query), args...)
}

// GetContext is the sqlx-shaped spelling of Get, for callers that take a
// generic querier. The statement timeout applies here too; the query is
// expected to carry driver placeholders already.
func (c *Conn) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.DB.GetContext(ctx, dest, query, args...)
}

// Exec runs a statement.
func (c *Conn) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.DB.ExecContext(ctx, c.Rebind(query), args...)
}

// Queryx runs a query and returns the row cursor. No statement timeout is
// layered on because the rows outlive this call; the request context still
// bounds it.
func (c *Conn) Queryx(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return c.DB.QueryxContext(ctx, c.Rebind(query), args...)
}

// Beginx opens a transaction on the tenant connection.
func (c *Conn) Beginx() (*sqlx.Tx, error) { return c.DB.Beginx() }

// EncodeText converts a string to the tenant's legacy byte encoding for
// the write path. UTF-8 tenants pass through unchanged.
func (c *Conn) EncodeText(s string) (interface{}, error) {
	if !c.transcode || s == "" {
		return s, nil
	}
	out, _, err := transform.String(c.enc.NewEncoder(), s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// DecodeText converts a value read from a legacy-encoded text column back
// to UTF-8. Values that fail to decode come back verbatim rather than
// erroring out a whole result set.
func (c *Conn) DecodeText(s string) string {
	if !c.transcode || s == "" {
		return s
	}
	out, _, err := transform.String(c.enc.NewDecoder(), s)
	if err != nil {
		return s
	}
	return out
}
