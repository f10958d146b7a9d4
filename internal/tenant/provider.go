package tenant

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ConnError reports a failed connection attempt. The attempted parameters
// are kept for operator diagnosis; the password is never included.
type ConnError struct {
	Tenant string
	Target string // host:port/database, credentials redacted
	Err    error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("tenant %s: connect %s: %v", e.Tenant, e.Target, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// OpenFunc opens a database handle for a resolved tenant config. The
// default opens the tenant's SQL Server; tests substitute an in-memory
// database.
type OpenFunc func(ctx context.Context, cfg Config) (*sqlx.DB, error)

// Provider resolves tenant keys through the registry and opens one fresh,
// encoding-configured connection per request. No pooling and no retry:
// the caller owns the connection and closes it on every exit path.
type Provider struct {
	Registry       *Registry
	Log            *zap.Logger
	ConnectTimeout time.Duration
	StmtTimeout    time.Duration
	Open           OpenFunc
}

// NewProvider returns a provider with the standard timeouts: a short
// bounded connect timeout so a dead tenant database fails fast, and a
// statement timeout so one slow tenant cannot exhaust worker capacity.
func NewProvider(reg *Registry, log *zap.Logger) *Provider {
	return &Provider{
		Registry:       reg,
		Log:            log,
		ConnectTimeout: 5 * time.Second,
		StmtTimeout:    30 * time.Second,
	}
}

// Connect resolves key and opens a live connection to that tenant's
// database with its text encoding configured for both read and write
// paths. All failures come back as *ConnError.
func (p *Provider) Connect(ctx context.Context, key string) (*Conn, error) {
	cfg, err := p.Registry.Resolve(key)
	if err != nil {
		return nil, &ConnError{Tenant: key, Err: err}
	}

	enc, transcode, err := resolveEncoding(cfg.Encoding)
	if err != nil {
		return nil, p.fail(cfg, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout())
	defer cancel()

	open := p.Open
	if open == nil {
		open = openSQLServer
	}
	db, err := open(ctx, cfg)
	if err != nil {
		return nil, p.fail(cfg, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, p.fail(cfg, err)
	}

	return &Conn{
		DB:          db,
		Tenant:      cfg,
		stmtTimeout: p.stmtTimeout(),
		enc:         enc,
		transcode:   transcode,
	}, nil
}

func (p *Provider) fail(cfg Config, err error) *ConnError {
	ce := &ConnError{Tenant: cfg.Key, Target: redactTarget(cfg), Err: err}
	if p.Log != nil {
		p.Log.Error("tenant connection failed",
			zap.String("tenant", cfg.Key),
			zap.String("target", ce.Target),
			zap.String("user", cfg.User),
			zap.Error(err))
	}
	return ce
}

func (p *Provider) connectTimeout() time.Duration {
	if p.ConnectTimeout > 0 {
		return p.ConnectTimeout
	}
	return 5 * time.Second
}

func (p *Provider) stmtTimeout() time.Duration {
	if p.StmtTimeout > 0 {
		return p.StmtTimeout
	}
	return 30 * time.Second
}

func redactTarget(cfg Config) string {
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

func openSQLServer(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	q := url.Values{}
	q.Set("database", cfg.Database)
	deadline, ok := ctx.Deadline()
	if ok {
		secs := int(time.Until(deadline).Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("dial timeout", fmt.Sprintf("%d", secs))
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: q.Encode(),
	}
	db, err := sqlx.Open("sqlserver", u.String())
	if err != nil {
		return nil, err
	}
	// One connection per request; the pool must not outgrow that.
	db.SetMaxOpenConns(1)
	return db, nil
}

// resolveEncoding maps a tenant charset name to a transcoder. UTF-8
// tenants need no transcoding at all; anything the encoding index does
// not know is a configuration failure.
func resolveEncoding(name string) (encoding.Encoding, bool, error) {
	if name == "" {
		name = DefaultEncoding
	}
	norm := strings.ToLower(strings.TrimSpace(name))
	enc, err := htmlindex.Get(norm)
	if err != nil {
		return nil, false, fmt.Errorf("unknown tenant encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return enc, false, nil
	}
	return enc, true, nil
}
