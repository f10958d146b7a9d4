package main

import (
	"net/http"

	"go.uber.org/zap"

	"mesgw/internal/seqcode"
)

func handleChulhaInsert(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req ChulhaReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.ChulhaDt == "" || req.JepumCd == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	dt, err := parseYMD(req.ChulhaDt)
	if err != nil {
		jsonErr(w, "invalid chulha_dt", 400)
		return
	}
	// Shipments carry the S letter; the F marker is shared with
	// production codes.
	prefix, err := seqcode.Prefix('S', dt, 'F')
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}
	chulhaDt := stripDashes(req.ChulhaDt)

	spec := seqcode.Spec{Table: "chulha_mst_temp", Column: "chulha_cd", Prefix: prefix}
	chulhaCd, err := seqcode.Insert(r.Context(), conn, spec, func(code string) error {
		_, err := conn.Exec(r.Context(),
			`INSERT INTO chulha_mst_temp (chulha_cd, chulha_dt, jepum_cd, vender_cd, amt, bigo, write_dt)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			code, chulhaDt, req.JepumCd, req.VenderCd, req.Amt, bigo, nowStamp())
		return err
	})
	if err != nil {
		logger.Error("shipment insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register shipment", 500)
		return
	}

	hub.DocumentCreated("chulha", conn.Tenant.Key, chulhaCd)
	jsonResp(w, map[string]string{"message": "registered", "chulha_cd": chulhaCd})
}

func handleChulhaList(w http.ResponseWriter, r *http.Request) {
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

	var rows []ChulhaRow
	err := conn.Select(r.Context(), &rows,
		`SELECT a.chulha_cd, a.chulha_dt, a.jepum_cd, COALESCE(b.jepum_nm,'') AS jepum_nm,
		        COALESCE(a.vender_cd,'') AS vender_cd, COALESCE(c.vender_nm,'') AS vender_nm,
		        COALESCE(a.amt,0) AS amt, COALESCE(a.bigo,'') AS bigo
		 FROM chulha_mst_temp a
		 LEFT JOIN jepum_code b ON a.jepum_cd = b.jepum_cd
		 LEFT JOIN vender_code c ON a.vender_cd = c.vender_cd
		 WHERE a.chulha_dt BETWEEN ? AND ?
		 ORDER BY a.chulha_dt DESC, a.chulha_cd DESC`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load shipments", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].VenderNm = conn.DecodeText(rows[i].VenderNm)
		rows[i].Bigo = conn.DecodeText(rows[i].Bigo)
	}
	if rows == nil {
		rows = []ChulhaRow{}
	}
	jsonResp(w, rows)
}

func handleChulhaUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req ChulhaReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.ChulhaCd == "" {
		jsonErr(w, "chulha_cd is required", 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}

	_, err = conn.Exec(r.Context(),
		`UPDATE chulha_mst_temp SET amt = ?, bigo = ? WHERE chulha_cd = ?`,
		req.Amt, bigo, req.ChulhaCd)
	if err != nil {
		jsonErr(w, "failed to update shipment", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "UPDATE success"})
}

func handleChulhaDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	chulhaCd := r.URL.Query().Get("chulha_cd")
	if chulhaCd == "" {
		jsonErr(w, "chulha_cd parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM chulha_mst_temp WHERE chulha_cd = ?`, chulhaCd); err != nil {
		jsonErr(w, "failed to delete shipment", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "DELETE success"})
}
