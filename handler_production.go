package main

import (
	"net/http"

	"go.uber.org/zap"

	"mesgw/internal/seqcode"
)

func handleSegsanInsert(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req SegsanReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.SegsanDt == "" || req.JepumCd == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	dt, err := parseYMD(req.SegsanDt)
	if err != nil {
		jsonErr(w, "invalid segsan_dt", 400)
		return
	}
	prefix, err := seqcode.Prefix('B', dt, 'F')
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}
	segsanDt := stripDashes(req.SegsanDt)

	// Mobile registrations carry fixed department and shift fields.
	writer, err := conn.EncodeText("모바일")
	if err != nil {
		jsonErr(w, "writer not representable in tenant encoding", 500)
		return
	}

	spec := seqcode.Spec{Table: "segsan_mst", Column: "segsan_cd", Prefix: prefix}
	segsanCd, err := seqcode.Insert(r.Context(), conn, spec, func(code string) error {
		_, err := conn.Exec(r.Context(),
			`INSERT INTO segsan_mst
			 (segsan_cd, segsan_seq, segsan_dt, jepum_cd, amt,
			  dept_cd, man_cd, write_nm, from_tm, to_tm, write_dt, stock_how, last_yn, segsan_plan_seq)
			 VALUES (?, '01', ?, ?, ?, 'P1200', ?, ?, '0900', '1800', ?, '1', 'Y', '01')`,
			code, segsanDt, req.JepumCd, req.Amt, writer, writer, nowStamp())
		return err
	})
	if err != nil {
		logger.Error("production insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register production result", 500)
		return
	}

	hub.DocumentCreated("segsan", conn.Tenant.Key, segsanCd)
	jsonResp(w, map[string]string{"message": "registered", "segsan_cd": segsanCd})
}

func handleSegsanList(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	if fromDt == "" {
		fromDt = "19000101"
	}
	toDt := r.URL.Query().Get("to_dt")
	if toDt == "" {
		toDt = "29991231"
	}

	var rows []SegsanRow
	err := conn.Select(r.Context(), &rows,
		`SELECT s.segsan_cd, s.segsan_dt, s.jepum_cd, COALESCE(j.jepum_nm,'') AS jepum_nm, COALESCE(s.amt,0) AS amt
		 FROM segsan_mst s
		 LEFT JOIN jepum_code j ON s.jepum_cd = j.jepum_cd
		 WHERE s.segsan_dt BETWEEN ? AND ?
		 ORDER BY s.segsan_dt DESC, s.segsan_cd DESC`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load production results", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
	}
	if rows == nil {
		rows = []SegsanRow{}
	}
	jsonResp(w, rows)
}

func handleSegsanUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req SegsanReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.SegsanCd == "" {
		jsonErr(w, "segsan_cd is required", 400)
		return
	}

	if _, err := conn.Exec(r.Context(), `UPDATE segsan_mst SET amt = ? WHERE segsan_cd = ?`, req.Amt, req.SegsanCd); err != nil {
		jsonErr(w, "failed to update production result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "UPDATE success"})
}

func handleSegsanDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	segsanCd := r.URL.Query().Get("segsan_cd")
	if segsanCd == "" {
		jsonErr(w, "segsan_cd parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM segsan_mst WHERE segsan_cd = ?`, segsanCd); err != nil {
		jsonErr(w, "failed to delete production result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "DELETE success"})
}

// handleSegsanProcess reports per-process results in a date range. Dates
// come back in the shortened yy-MM-dd form the result screens render.
func handleSegsanProcess(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	prgCd := r.URL.Query().Get("prg_cd")
	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")
	if prgCd == "" {
		jsonErr(w, "prg_cd parameter is required", 400)
		return
	}
	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameter is required", 400)
		return
	}

	var rows []ProcessResult
	err := conn.Select(r.Context(), &rows,
		`SELECT s.jepum_cd, COALESCE(j.jepum_nm,'') AS jepum_nm, COALESCE(s.amt,0) AS amt,
		        s.segsan_dt, COALESCE(s.lot_no,'') AS lot_no
		 FROM segsan_mst s
		 LEFT JOIN jepum_code j ON s.jepum_cd = j.jepum_cd
		 WHERE s.prg_cd = ? AND s.segsan_dt >= ? AND s.segsan_dt <= ?
		 ORDER BY s.segsan_dt DESC`,
		prgCd, fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load process results", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].SegsanDt = formatShortDate(rows[i].SegsanDt)
	}
	if rows == nil {
		rows = []ProcessResult{}
	}
	jsonResp(w, rows)
}
