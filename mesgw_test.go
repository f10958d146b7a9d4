package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"mesgw/internal/tenant"
	"mesgw/internal/websocket"
)

const testSchema = `
CREATE TABLE vender_code (vender_cd TEXT PRIMARY KEY, vender_nm TEXT, city TEXT, address1 TEXT, tel TEXT, tab_gbn_cd TEXT);
CREATE TABLE jepum_code (jepum_cd TEXT PRIMARY KEY, jepum_nm TEXT, color TEXT, tab_gbn_cd TEXT);
CREATE TABLE suju_mst (suju_cd TEXT UNIQUE, suju_seq TEXT, suju_gbn TEXT, suju_dt TEXT, out_dt_to TEXT,
    jepum_cd TEXT, vender_cd TEXT, amt REAL, bigo TEXT, process_cd TEXT, write_dt TEXT);
CREATE TABLE stock_mst (inout_no TEXT UNIQUE, inout_seq TEXT, inout_gbn TEXT, inout_dt TEXT, jepum_cd TEXT,
    confirm_amt REAL, process_fg TEXT, rcv_nm TEXT, stock_cd_from TEXT, stock_cd_to TEXT,
    write_nm TEXT, tm_1 TEXT, vender_cd TEXT, bigo TEXT);
CREATE TABLE stock_last (jepum_cd TEXT, amt REAL);
CREATE TABLE stock_sum_v6 (jepum_cd TEXT, stock_tot REAL);
CREATE TABLE segsan_mst (segsan_cd TEXT UNIQUE, segsan_seq TEXT, segsan_dt TEXT, jepum_cd TEXT, amt REAL,
    lot_no TEXT, line TEXT, prg_cd TEXT, dept_cd TEXT, man_cd TEXT, write_nm TEXT,
    from_tm TEXT, to_tm TEXT, write_dt TEXT, stock_how TEXT, last_yn TEXT, segsan_plan_seq TEXT);
CREATE TABLE chulha_mst_temp (chulha_cd TEXT UNIQUE, chulha_dt TEXT, jepum_cd TEXT, vender_cd TEXT,
    amt REAL, bigo TEXT, write_dt TEXT);
CREATE TABLE lot_hst (lot_no TEXT, prg_cd TEXT, lot_seq INTEGER, amt REAL, man_cd TEXT, jepum_cd TEXT,
    work_dt TEXT, bigo_1 TEXT, bigo_a1 REAL, lot_no2 TEXT, dev_no TEXT);
CREATE TABLE hmtperson (emp_nmk TEXT, dept_cd TEXT);
CREATE TABLE smart_log5 (cr_dt TEXT DEFAULT CURRENT_TIMESTAMP, auto_id TEXT, ymd TEXT, hh TEXT, mm TEXT, ss TEXT,
    col_1 REAL, col_2 REAL);
CREATE TABLE api_usage_log (actor_id TEXT, op_nm TEXT, ip_addr TEXT, corp_cd TEXT, reg_dt TEXT);
CREATE TABLE mon_06_v (gbn TEXT, col_1 TEXT, ymd TEXT, amt REAL);
CREATE TABLE analysis_history (id INTEGER PRIMARY KEY AUTOINCREMENT, analysis_dt TEXT, analyst_nm TEXT,
    x_variable TEXT, y_variable TEXT, correlation REAL, r_squared REAL, equation TEXT,
    interpretation TEXT, scatter_data TEXT, line_data TEXT);
`

// setupTest points the package globals at an in-memory database that the
// tenant provider re-opens per request, the way production opens one SQL
// Server connection per request.
func setupTest(t *testing.T) *sqlx.DB {
	t.Helper()

	logger = zap.NewNop()
	hub = websocket.NewHub(zap.NewNop())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	reg := tenant.NewRegistry(tenant.Defaults{Host: "test", Port: 1, Encoding: "utf-8"}, nil)
	provider = tenant.NewProvider(reg, zap.NewNop())
	provider.Open = func(ctx context.Context, cfg tenant.Config) (*sqlx.DB, error) {
		return sqlx.Open("sqlite", dsn)
	}

	// held open for the test's lifetime so the shared memory db survives
	// between per-request connections
	keeper, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := keeper.Exec(testSchema); err != nil {
		keeper.Close()
		t.Fatal(err)
	}
	t.Cleanup(func() { keeper.Close() })
	return keeper
}

func doReq(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	newMux().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("bad JSON response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	setupTest(t)

	w := doReq(t, "GET", "/", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status field = %q", resp["status"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	setupTest(t)

	w := doReq(t, "GET", "/api/select/nothing/here?v_db=acme", "")
	if w.Code != 404 {
		t.Fatalf("status = %d", w.Code)
	}
}

// Every tenant-scoped endpoint must reject a request without v_db before
// touching any database.
func TestMissingTenantKeyRejected(t *testing.T) {
	logger = zap.NewNop()
	hub = websocket.NewHub(zap.NewNop())
	reg := tenant.NewRegistry(tenant.Defaults{Host: "test", Port: 1}, nil)
	provider = tenant.NewProvider(reg, zap.NewNop())
	opened := 0
	provider.Open = func(ctx context.Context, cfg tenant.Config) (*sqlx.DB, error) {
		opened++
		return nil, fmt.Errorf("must not be called")
	}

	paths := []string{
		"/api/select/vender/all",
		"/api/select/suju/all?from_dt=20250101&to_dt=20250131",
		"/api/segsan/list",
		"/api/chulha/list",
		"/api/select/etc/test-result?from_dt=20250101&to_dt=20250131",
	}
	for _, p := range paths {
		w := doReq(t, "GET", p, "")
		if w.Code != 400 {
			t.Errorf("%s: status = %d, want 400", p, w.Code)
		}
		var resp map[string]string
		decodeJSON(t, w, &resp)
		if !strings.Contains(resp["error"], "v_db") {
			t.Errorf("%s: error = %q", p, resp["error"])
		}
	}
	if opened != 0 {
		t.Errorf("database opened %d times for requests without v_db", opened)
	}
}

func TestConnectionFailureHidesCredentials(t *testing.T) {
	logger = zap.NewNop()
	hub = websocket.NewHub(zap.NewNop())
	reg := tenant.NewRegistry(tenant.Defaults{Host: "test", Port: 1}, nil)
	provider = tenant.NewProvider(reg, zap.NewNop())
	provider.Open = func(ctx context.Context, cfg tenant.Config) (*sqlx.DB, error) {
		return nil, fmt.Errorf("dial tcp: refused (user=%s)", cfg.User)
	}

	w := doReq(t, "GET", "/api/select/vender/all?v_db=secret_tenant", "")
	if w.Code != 500 {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "refused") || strings.Contains(body, "user=") {
		t.Errorf("driver error leaked to client: %s", body)
	}
}

func TestVenderAll(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO vender_code VALUES ('V001', '대한전자', '서울', '강남구 1', '02-111', '01')`)
	db.MustExec(`INSERT INTO vender_code VALUES ('V002', '한빛상사', '부산', NULL, NULL, '02')`)

	w := doReq(t, "GET", "/api/select/vender/all?v_db=acme", "")
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var rows []Vender
	decodeJSON(t, w, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].VenderCd != "V001" || rows[0].VenderNm != "대한전자" {
		t.Errorf("row0 = %+v", rows[0])
	}
	// NULL columns come back as empty strings, not nulls
	if rows[1].Address1 != "" {
		t.Errorf("address1 = %q", rows[1].Address1)
	}

	// /out filters on tab_gbn_cd 01
	w = doReq(t, "GET", "/api/select/vender/out?v_db=acme", "")
	decodeJSON(t, w, &rows)
	if len(rows) != 1 || rows[0].VenderCd != "V001" {
		t.Errorf("out rows = %+v", rows)
	}
}

func TestCommonJepumFilter(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO jepum_code VALUES ('J2', '나제품', '', '01')`)
	db.MustExec(`INSERT INTO jepum_code VALUES ('J1', '가제품', '', '02')`)

	w := doReq(t, "GET", "/api/common/jepum?v_db=acme", "")
	var rows []Jepum
	decodeJSON(t, w, &rows)
	if len(rows) != 2 || rows[0].JepumCd != "J1" {
		t.Fatalf("unfiltered rows = %+v", rows)
	}

	w = doReq(t, "GET", "/api/common/jepum?v_db=acme&tab_gbn_cd=01", "")
	decodeJSON(t, w, &rows)
	if len(rows) != 1 || rows[0].JepumCd != "J2" {
		t.Errorf("filtered rows = %+v", rows)
	}
}

func TestStockList(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO jepum_code VALUES ('J1', '가제품', '', '01')`)
	db.MustExec(`INSERT INTO stock_sum_v6 VALUES ('J1', 120)`)
	db.MustExec(`INSERT INTO stock_sum_v6 VALUES ('J9', 5)`)

	w := doReq(t, "GET", "/api/stock/list?v_db=acme", "")
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var rows []StockSummary
	decodeJSON(t, w, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	for _, row := range rows {
		if row.JepumCd == "J9" && row.JepumNm != "J9" {
			t.Errorf("unnamed product should fall back to its code, got %q", row.JepumNm)
		}
	}
}

func TestStockExportIsWorkbook(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO stock_sum_v6 VALUES ('J1', 7)`)

	w := doReq(t, "GET", "/api/stock/export?v_db=acme", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("disposition = %q", cd)
	}
	// xlsx files are zip archives
	if b := w.Body.Bytes(); len(b) < 4 || b[0] != 'P' || b[1] != 'K' {
		t.Error("response is not a zip archive")
	}
}

func TestTestManCd(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO hmtperson VALUES ('김측정', 'D100')`)
	db.MustExec(`INSERT INTO hmtperson VALUES ('이포장', 'D200')`)

	w := doReq(t, "GET", "/api/select/etc/test_man_cd?v_db=acme&dept_cd=D100", "")
	var rows []Worker
	decodeJSON(t, w, &rows)
	if len(rows) != 1 || rows[0].EmpNmk != "김측정" {
		t.Errorf("rows = %+v", rows)
	}

	w = doReq(t, "GET", "/api/select/etc/test_man_cd?v_db=acme", "")
	if w.Code != 400 {
		t.Errorf("missing dept_cd: status = %d", w.Code)
	}
}
