package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// measurementRow carries one smart_log5 sample. The client-side key is
// "<cr_dt>_<auto_id>" with cr_dt down to milliseconds, which keeps keys
// unique even for rows sharing the same second. cr_dt travels as a string
// on both sides of the query: the mssql driver renders its datetime into
// one and sqlite stores the text verbatim.
type measurementRow struct {
	CrDt   string  `db:"cr_dt"`
	AutoID string  `db:"auto_id"`
	Col1   float64 `db:"col_1"`
	Col2   float64 `db:"col_2"`
	Ymd    string  `db:"ymd"`
	Hh     string  `db:"hh"`
	Mm     string  `db:"mm"`
	Ss     string  `db:"ss"`
}

func measurementKey(crDt, autoID string) string {
	return crDt + "_" + autoID
}

// splitMeasurementKey splits on the last underscore: the timestamp part
// contains no underscore but splitting from the right keeps that a
// non-assumption.
func splitMeasurementKey(key string) (crDt, autoID string, ok bool) {
	i := strings.LastIndexByte(key, '_')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func formatCrDt(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// parseCrDt accepts the stored "2006-01-02 15:04:05.000" form as well as
// the RFC 3339 rendering database/sql produces when a driver-side
// datetime is scanned into a string.
func parseCrDt(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized cr_dt %q", s)
}

func handleMeasurementList(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt and to_dt parameters are required", 400)
		return
	}
	from, err := parseYMD(fromDt)
	if err != nil {
		jsonErr(w, "invalid from_dt", 400)
		return
	}
	to, err := parseYMD(toDt)
	if err != nil {
		jsonErr(w, "invalid to_dt", 400)
		return
	}

	var rows []measurementRow
	err = conn.Select(r.Context(), &rows,
		`SELECT cr_dt, auto_id, COALESCE(col_1,0) AS col_1, COALESCE(col_2,0) AS col_2,
		        COALESCE(ymd,'') AS ymd, COALESCE(hh,'') AS hh, COALESCE(mm,'') AS mm, COALESCE(ss,'') AS ss
		 FROM smart_log5
		 WHERE cr_dt >= ? AND cr_dt < ?
		 ORDER BY cr_dt DESC, auto_id`,
		formatCrDt(from), formatCrDt(to.AddDate(0, 0, 1)))
	if err != nil {
		jsonErr(w, "failed to load measurement data", 500)
		return
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		crDt := row.CrDt
		if t, err := parseCrDt(row.CrDt); err == nil {
			crDt = formatCrDt(t)
		}
		out = append(out, map[string]interface{}{
			"key":      measurementKey(crDt, row.AutoID),
			"dateTime": crDt,
			"auto_id":  row.AutoID,
			"data1":    strconv.FormatFloat(row.Col1, 'f', -1, 64),
			"data2":    strconv.FormatFloat(row.Col2, 'f', -1, 64),
			"col_1_db": row.Col1,
			"col_2_db": row.Col2,
		})
	}
	jsonResp(w, out)
}

func handleMeasurementUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req struct {
		Key   string `json:"key"`
		Data1 string `json:"data1"`
		Data2 string `json:"data2"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid request body", 400)
		return
	}
	if req.Key == "" || req.Data1 == "" || req.Data2 == "" {
		jsonErr(w, "key, data1, data2 are all required", 400)
		return
	}
	crDt, autoID, ok := splitMeasurementKey(req.Key)
	if !ok {
		jsonErr(w, "invalid key", 400)
		return
	}
	data1, err1 := strconv.ParseFloat(req.Data1, 64)
	data2, err2 := strconv.ParseFloat(req.Data2, 64)
	if err1 != nil || err2 != nil {
		jsonErr(w, "data1 and data2 must be numeric", 400)
		return
	}

	res, err := conn.Exec(r.Context(),
		`UPDATE smart_log5 SET col_1 = ?, col_2 = ? WHERE cr_dt = ? AND auto_id = ?`,
		data1, data2, crDt, autoID)
	if err != nil {
		jsonErr(w, "failed to update measurement", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "no matching measurement row", 404)
		return
	}
	jsonResp(w, map[string]string{"message": "measurement updated"})
}

func handleMeasurementDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	key := r.URL.Query().Get("key")
	if key == "" {
		jsonErr(w, "key parameter is required", 400)
		return
	}
	crDt, autoID, ok := splitMeasurementKey(key)
	if !ok {
		jsonErr(w, "invalid key", 400)
		return
	}

	res, err := conn.Exec(r.Context(),
		`DELETE FROM smart_log5 WHERE cr_dt = ? AND auto_id = ?`, crDt, autoID)
	if err != nil {
		jsonErr(w, "failed to delete measurement", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "no matching measurement row", 404)
		return
	}
	jsonResp(w, map[string]string{"message": "measurement deleted"})
}

// handleMeasurementDuplicate copies a row under the same auto_id with
// cr_dt left to the column default, so the copy lands at the current
// time.
func handleMeasurementDuplicate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req struct {
		OriginalKey string `json:"original_key"`
	}
	if err := decodeBody(r, &req); err != nil || req.OriginalKey == "" {
		jsonErr(w, "original_key is required", 400)
		return
	}
	crDt, autoID, ok := splitMeasurementKey(req.OriginalKey)
	if !ok {
		jsonErr(w, "invalid original_key", 400)
		return
	}

	var src struct {
		Col1 float64 `db:"col_1"`
		Col2 float64 `db:"col_2"`
		Ymd  string  `db:"ymd"`
		Hh   string  `db:"hh"`
		Mm   string  `db:"mm"`
		Ss   string  `db:"ss"`
	}
	err := conn.Get(r.Context(), &src,
		`SELECT COALESCE(col_1,0) AS col_1, COALESCE(col_2,0) AS col_2,
		        COALESCE(ymd,'') AS ymd, COALESCE(hh,'') AS hh, COALESCE(mm,'') AS mm, COALESCE(ss,'') AS ss
		 FROM smart_log5
		 WHERE cr_dt = ? AND auto_id = ?`,
		crDt, autoID)
	if err != nil {
		jsonErr(w, fmt.Sprintf("source row not found for key %s", req.OriginalKey), 404)
		return
	}

	_, err = conn.Exec(r.Context(),
		`INSERT INTO smart_log5 (auto_id, ymd, hh, mm, ss, col_1, col_2)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		autoID, src.Ymd, src.Hh, src.Mm, src.Ss, src.Col1, src.Col2)
	if err != nil {
		jsonErr(w, "failed to duplicate measurement", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "duplicated", "new_auto_id": autoID})
}
