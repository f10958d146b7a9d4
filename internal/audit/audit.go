// Package audit appends one usage record per tenant-scoped API request.
// It runs after the primary response is written, on its own connection,
// and no failure in here may ever surface to the client.
package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mesgw/internal/tenant"
)

// Record is one usage row as written to api_usage_log.
type Record struct {
	Actor     string
	Operation string
	ClientIP  string
	CorpCode  string
	CreatedAt time.Time
}

// Logger writes usage records. Labels maps request paths to the
// human-readable operation names stored in the log; unknown paths fall
// back to the raw path.
type Logger struct {
	Provider *tenant.Provider
	Log      *zap.Logger
	Actor    string
	CorpCode string
	Labels   map[string]string

	// tenants whose audit table is missing get one warning, then silence
	warned sync.Map
}

// Excluded paths never produce a usage record.
func Excluded(path string) bool {
	if path == "/" || path == "/ws" {
		return true
	}
	return strings.HasPrefix(path, "/api/select/file/") ||
		strings.HasPrefix(path, "/static/")
}

// ClientIP extracts the caller address, preferring the first entry of a
// forwarded-for header over the direct peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Record writes one usage row for the given tenant and path. It acquires
// its own connection, swallows every failure after logging it, and never
// blocks the response path (callers invoke it after the response is
// written, typically in a goroutine).
func (l *Logger) Record(ctx context.Context, tenantKey, path, clientIP string) {
	if tenantKey == "" || Excluded(path) {
		return
	}

	conn, err := l.Provider.Connect(ctx, tenantKey)
	if err != nil {
		l.debug("audit connect failed", tenantKey, err)
		return
	}
	defer conn.Close()

	op := path
	if label, ok := l.Labels[path]; ok {
		op = label
	}

	rec := Record{
		Actor:     l.Actor,
		Operation: op,
		ClientIP:  clientIP,
		CorpCode:  l.CorpCode,
		CreatedAt: time.Now(),
	}
	_, err = conn.Exec(ctx,
		`INSERT INTO api_usage_log (actor_id, op_nm, ip_addr, corp_cd, reg_dt) VALUES (?, ?, ?, ?, ?)`,
		rec.Actor, rec.Operation, rec.ClientIP, rec.CorpCode, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	if err != nil {
		if isMissingTable(err) {
			// Some tenants were provisioned without the usage table.
			// Warn once per tenant so a misconfigured environment is
			// visible, then stay quiet.
			if _, seen := l.warned.LoadOrStore(tenantKey, struct{}{}); !seen {
				if l.Log != nil {
					l.Log.Warn("audit table missing for tenant",
						zap.String("tenant", tenantKey))
				}
			}
			return
		}
		l.debug("audit insert failed", tenantKey, err)
	}
}

func (l *Logger) debug(msg, tenantKey string, err error) {
	if l.Log != nil {
		l.Log.Debug(msg, zap.String("tenant", tenantKey), zap.Error(err))
	}
}

// isMissingTable matches "object not found" across the supported drivers:
// SQL Server error 208 and sqlite's "no such table".
func isMissingTable(err error) bool {
	var numbered interface{ SQLErrorNumber() int32 }
	if errors.As(err, &numbered) {
		return numbered.SQLErrorNumber() == 208
	}
	return strings.Contains(err.Error(), "no such table")
}
