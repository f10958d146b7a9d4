package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mesgw/internal/response"
	"mesgw/internal/tenant"
	"mesgw/internal/websocket"
)

// Shared handler state, wired up in main.
var (
	logger    *zap.Logger
	provider  *tenant.Provider
	hub       *websocket.Hub
	uploadDir = "uploads"
)

// dbConn is the slice of *tenant.Conn the read-only handlers need; it
// lets the same query helper back both the JSON and export paths.
type dbConn interface {
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	DecodeText(s string) string
}

// tenantConn extracts the v_db tenant key and opens that tenant's
// database. A missing key is a client error answered before any
// connection attempt; a failed connect is answered with a generic
// message, the driver detail stays in the server log.
func tenantConn(w http.ResponseWriter, r *http.Request) (*tenant.Conn, bool) {
	key := r.URL.Query().Get("v_db")
	if key == "" {
		response.Err(w, "v_db parameter is required", http.StatusBadRequest)
		return nil, false
	}
	conn, err := provider.Connect(r.Context(), key)
	if err != nil {
		logger.Error("tenant connect failed", zap.String("tenant", key), zap.Error(err))
		response.Err(w, "DB connection failed for "+key, http.StatusInternalServerError)
		return nil, false
	}
	return conn, true
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonCreated(w http.ResponseWriter, data interface{}) {
	response.Created(w, data)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}

// stripDashes normalizes client dates like "2025-03-06" to the YYYYMMDD
// form the ERP tables store.
func stripDashes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// parseYMD accepts "2025-03-06" or "20250306".
func parseYMD(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse("20060102", s)
}

// formatShortDate turns a stored YYYYMMDD date into the yy-MM-dd form
// the process-result screens render.
func formatShortDate(ymd string) string {
	if len(ymd) < 8 {
		return ymd
	}
	return ymd[2:4] + "-" + ymd[4:6] + "-" + ymd[6:8]
}

func nowStamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
