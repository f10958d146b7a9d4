package main

import (
	"net/http"

	"go.uber.org/zap"

	"mesgw/internal/seqcode"
)

func handleSujuAll(w http.ResponseWriter, r *http.Request) {
	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")

	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	if fromDt == "" || toDt == "" {
		jsonErr(w, "from_dt, to_dt parameter is required", 400)
		return
	}

	var rows []Order
	err := conn.Select(r.Context(), &rows,
		`SELECT a.suju_cd, a.suju_dt, COALESCE(a.out_dt_to,'') AS out_dt_to, a.jepum_cd,
		        COALESCE(b.jepum_nm,'') AS jepum_nm, COALESCE(a.vender_cd,'') AS vender_cd,
		        COALESCE(c.vender_nm,'') AS vender_nm, COALESCE(a.amt,0) AS amt,
		        COALESCE(a.bigo,'') AS bigo, COALESCE(a.process_cd,'') AS process_cd
		 FROM suju_mst a
		 LEFT OUTER JOIN jepum_code b ON a.jepum_cd = b.jepum_cd
		 LEFT OUTER JOIN vender_code c ON a.vender_cd = c.vender_cd
		 WHERE a.suju_dt >= ? AND a.suju_dt <= ?
		 ORDER BY a.write_dt`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load orders", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].VenderNm = conn.DecodeText(rows[i].VenderNm)
		rows[i].Bigo = conn.DecodeText(rows[i].Bigo)
	}
	if rows == nil {
		rows = []Order{}
	}
	jsonResp(w, rows)
}

func handleSujuRegister(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req OrderReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.SujuSeq == "" {
		req.SujuSeq = "01"
	}
	if req.SujuGbn == "" {
		req.SujuGbn = "02"
	}
	if req.ProcessCd == "" {
		req.ProcessCd = "01"
	}
	if req.SujuDt == "" || req.OutDtTo == "" || req.JepumCd == "" || req.VenderCd == "" || req.Amt == 0 {
		jsonErr(w, "required fields missing", 400)
		return
	}

	dt, err := parseYMD(req.SujuDt)
	if err != nil {
		jsonErr(w, "invalid suju_dt", 400)
		return
	}
	prefix, err := seqcode.Prefix('B', dt, 'D')
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}
	sujuDt := stripDashes(req.SujuDt)
	outDtTo := stripDashes(req.OutDtTo)

	spec := seqcode.Spec{Table: "suju_mst", Column: "suju_cd", Prefix: prefix}
	sujuCd, err := seqcode.Insert(r.Context(), conn, spec, func(code string) error {
		_, err := conn.Exec(r.Context(),
			`INSERT INTO suju_mst (suju_cd, suju_seq, suju_gbn, suju_dt, out_dt_to, jepum_cd, vender_cd, amt, bigo, process_cd, write_dt)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			code, req.SujuSeq, req.SujuGbn, sujuDt, outDtTo, req.JepumCd, req.VenderCd, req.Amt, bigo, req.ProcessCd, nowStamp())
		return err
	})
	if err != nil {
		logger.Error("order insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register order", 500)
		return
	}

	hub.DocumentCreated("suju", conn.Tenant.Key, sujuCd)
	jsonResp(w, map[string]string{"message": "order registered", "suju_cd": sujuCd})
}

func handleSujuUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req OrderReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.ProcessCd == "" {
		req.ProcessCd = "01"
	}
	if req.SujuCd == "" || req.SujuDt == "" || req.OutDtTo == "" || req.JepumCd == "" || req.VenderCd == "" || req.Amt == 0 {
		jsonErr(w, "required fields missing", 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}

	_, err = conn.Exec(r.Context(),
		`UPDATE suju_mst SET suju_dt = ?, out_dt_to = ?, jepum_cd = ?, vender_cd = ?, amt = ?, bigo = ?, process_cd = ? WHERE suju_cd = ?`,
		stripDashes(req.SujuDt), stripDashes(req.OutDtTo), req.JepumCd, req.VenderCd, req.Amt, bigo, req.ProcessCd, req.SujuCd)
	if err != nil {
		jsonErr(w, "failed to update order", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "UPDATE success"})
}

func handleSujuDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	sujuCd := r.URL.Query().Get("suju_cd")
	if sujuCd == "" {
		jsonErr(w, "suju_cd parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM suju_mst WHERE suju_cd = ?`, sujuCd); err != nil {
		jsonErr(w, "failed to delete order", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "DELETE success"})
}
