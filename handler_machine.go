package main

import (
	"net/http"
	"strconv"
	"strings"
)

func handleSmartLog(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []SmartLog
	err := conn.Select(r.Context(), &rows,
		`SELECT ymd+hh+mm AS ymdhhmm, auto_id, COALESCE(col_1,0) AS col_1, COALESCE(col_2,0) AS col_2,
		        COALESCE(col_3,0) AS col_3, COALESCE(col_4,0) AS col_4, COALESCE(bigo,'') AS bigo
		 FROM smart_log
		 ORDER BY ymd, hh, mm DESC`)
	if err != nil {
		jsonErr(w, "failed to load machine log", 500)
		return
	}
	if rows == nil {
		rows = []SmartLog{}
	}
	jsonResp(w, rows)
}

func handleSmartPrgCd(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []PrgCode
	err := conn.Select(r.Context(), &rows,
		`SELECT prg_cd, COALESCE(prg_nm,'') AS prg_nm FROM smart_prg_mst ORDER BY prg_cd`)
	if err != nil {
		jsonErr(w, "failed to load process list", 500)
		return
	}
	for i := range rows {
		rows[i].PrgNm = conn.DecodeText(rows[i].PrgNm)
	}
	if rows == nil {
		rows = []PrgCode{}
	}
	jsonResp(w, rows)
}

// handleEquipDownTime returns the per-device minute status vector for a
// day. The monitoring view carries one column per minute slice, so the
// row is read positionally: device name, then auto_id and ymd, then the
// status columns in view order.
func handleEquipDownTime(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	ymd := r.URL.Query().Get("ymd")
	prgCd := r.URL.Query().Get("prg_cd")
	if ymd == "" || prgCd == "" {
		jsonErr(w, "ymd and prg_cd parameters are required", 400)
		return
	}

	rows, err := conn.Queryx(r.Context(),
		`SELECT m.auto_nm, v.*
		 FROM mon_01_v v
		 JOIN smart_mst m ON v.auto_id = m.auto_id
		 WHERE v.ymd = ? AND m.prg_cd = ?
		 ORDER BY m.auto_nm`,
		ymd, prgCd)
	if err != nil {
		jsonErr(w, "failed to load down-time data", 500)
		return
	}
	defer rows.Close()

	type deviceStatus struct {
		Device string        `json:"device"`
		Date   string        `json:"date"`
		Status []interface{} `json:"status"`
	}
	out := []deviceStatus{}
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			jsonErr(w, "failed to load down-time data", 500)
			return
		}
		if len(cols) < 3 {
			continue
		}
		out = append(out, deviceStatus{
			Device: conn.DecodeText(asString(cols[0])),
			Date:   asString(cols[2]),
			Status: cols[3:],
		})
	}
	if err := rows.Err(); err != nil {
		jsonErr(w, "failed to load down-time data", 500)
		return
	}
	jsonResp(w, out)
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return ""
	}
}

func handleProcessEquip(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	prgCd := r.URL.Query().Get("prg_cd")
	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if prgCd == "" || fromDt == "" || toDt == "" {
		jsonErr(w, "prg_cd, from_dt, to_dt parameters are all required", 400)
		return
	}

	var rows []DeviceUptime
	err := conn.Select(r.Context(), &rows,
		`SELECT m.auto_nm AS device, COALESCE(SUM(v.green),0) AS green, COALESCE(SUM(v.red),0) AS red
		 FROM mon_02_v v
		 JOIN smart_mst m ON v.auto_id = m.auto_id
		 WHERE m.prg_cd = ? AND v.ymd BETWEEN ? AND ?
		 GROUP BY m.auto_nm
		 ORDER BY m.auto_nm`,
		prgCd, fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load uptime data", 500)
		return
	}
	for i := range rows {
		rows[i].Device = conn.DecodeText(rows[i].Device)
	}
	if rows == nil {
		rows = []DeviceUptime{}
	}
	jsonResp(w, rows)
}

func handleJepumDefectRate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameters are all required", 400)
		return
	}

	var rows []DefectRate
	err := conn.Select(r.Context(), &rows,
		`SELECT vv_t.jepum_cd, COALESCE(SUM(vv_t.amt_ok),0) AS amt_ok, COALESCE(SUM(vv_t.amt_err),0) AS amt_err
		 FROM (SELECT v_t.lot_no, v_t.jepum_cd,
		              SUM(COALESCE(v_t.amt_ok, 0)) AS amt_ok,
		              SUM(COALESCE(v_b.amt, 0)) AS amt_err
		       FROM (SELECT a.lot_no, a.jepum_cd, SUM(a.amt) AS amt_ok
		             FROM segsan_mst a
		             WHERE a.segsan_dt BETWEEN ? AND ? AND a.prg_cd = '110'
		             GROUP BY a.lot_no, a.jepum_cd) v_t
		       LEFT OUTER JOIN banpum_mst v_b ON v_t.lot_no = v_b.lot_no AND v_t.jepum_cd = v_b.jepum_cd
		       GROUP BY v_t.lot_no, v_t.jepum_cd) vv_t
		 GROUP BY vv_t.jepum_cd`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load defect rates", 500)
		return
	}
	if rows == nil {
		rows = []DefectRate{}
	}
	jsonResp(w, rows)
}

func handleLineDefectRate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameters are all required", 400)
		return
	}

	var rows []LineDefectRate
	err := conn.Select(r.Context(), &rows,
		`SELECT vv_t.line, COALESCE(SUM(vv_t.amt_ok),0) AS amt_ok, COALESCE(SUM(vv_t.amt_err),0) AS amt_err
		 FROM (SELECT v_t.lot_no, v_t.jepum_cd,
		              SUM(COALESCE(v_t.amt_ok, 0)) AS amt_ok,
		              SUM(COALESCE(v_b.amt, 0)) AS amt_err,
		              MAX(CASE WHEN ISNUMERIC(v_t.line) = 1 THEN CAST(v_t.line AS INT) ELSE 1 END) AS line
		       FROM (SELECT a.lot_no, a.jepum_cd, SUM(a.amt) AS amt_ok, MAX(a.line) AS line
		             FROM segsan_mst a
		             WHERE a.segsan_dt BETWEEN ? AND ? AND a.prg_cd = '110'
		             GROUP BY a.lot_no, a.jepum_cd) v_t
		       LEFT OUTER JOIN banpum_mst v_b ON v_t.lot_no = v_b.lot_no AND v_t.jepum_cd = v_b.jepum_cd
		       GROUP BY v_t.lot_no, v_t.jepum_cd) vv_t
		 GROUP BY vv_t.line
		 ORDER BY vv_t.line`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load line defect rates", 500)
		return
	}
	if rows == nil {
		rows = []LineDefectRate{}
	}
	jsonResp(w, rows)
}

// handleJepumEquipDefectRate pivots the per-device ok/err totals into one
// object per product with keys "1".."8".
func handleJepumEquipDefectRate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameters are all required", 400)
		return
	}

	var cases strings.Builder
	for dev := 1; dev <= 8; dev++ {
		d := strconv.Itoa(dev)
		cases.WriteString(`, SUM(CASE WHEN dev_no = ` + d + ` THEN amt_ok ELSE 0 END) AS dev` + d + `_ok`)
		cases.WriteString(`, SUM(CASE WHEN dev_no = ` + d + ` THEN amt_err ELSE 0 END) AS dev` + d + `_err`)
	}

	rows, err := conn.Queryx(r.Context(),
		`SELECT jepum_nm`+cases.String()+`
		 FROM mon_04_v
		 WHERE ymd BETWEEN ? AND ?
		 GROUP BY jepum_nm
		 ORDER BY jepum_nm`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load device defect rates", 500)
		return
	}
	defer rows.Close()

	out := []map[string]interface{}{}
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil || len(cols) < 17 {
			jsonErr(w, "failed to load device defect rates", 500)
			return
		}
		row := map[string]interface{}{"jepum_nm": conn.DecodeText(asString(cols[0]))}
		for dev := 1; dev <= 8; dev++ {
			row[strconv.Itoa(dev)] = map[string]int64{
				"ok":  asInt64(cols[2*dev-1]),
				"err": asInt64(cols[2*dev]),
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		jsonErr(w, "failed to load device defect rates", 500)
		return
	}
	jsonResp(w, out)
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

func handleDescriptive(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameters are all required", 400)
		return
	}

	var rows []DailyProduction
	err := conn.Select(r.Context(), &rows,
		`SELECT ymd, COALESCE(ok,0) AS ok, COALESCE(err,0) AS err
		 FROM mon_07_v
		 WHERE ymd BETWEEN ? AND ?
		 ORDER BY ymd`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load daily production", 500)
		return
	}
	if rows == nil {
		rows = []DailyProduction{}
	}
	jsonResp(w, rows)
}
