package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mesgw/internal/seqcode"
)

func handleStockJepum(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []StockJepum
	err := conn.Select(r.Context(), &rows,
		`SELECT a.jepum_cd, COALESCE(b.jepum_nm,'') AS jepum_nm, COALESCE(b.color,'') AS spec, a.amt
		 FROM stock_last a
		 LEFT OUTER JOIN jepum_code b ON a.jepum_cd = b.jepum_cd
		 WHERE a.amt > 0
		 ORDER BY a.jepum_cd`)
	if err != nil {
		jsonErr(w, "failed to load stock", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].Spec = conn.DecodeText(rows[i].Spec)
	}
	if rows == nil {
		rows = []StockJepum{}
	}
	jsonResp(w, rows)
}

func handleStockJepumOut(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	fromDt := r.URL.Query().Get("from_dt")
	toDt := r.URL.Query().Get("to_dt")

	var rows []StockOut
	err := conn.Select(r.Context(), &rows,
		`SELECT a.inout_no, a.inout_dt, a.jepum_cd, COALESCE(b.jepum_nm,'') AS jepum_nm,
		        COALESCE(a.confirm_amt,0) AS confirm_amt, COALESCE(a.vender_cd,'') AS vender_cd,
		        COALESCE(c.vender_nm,'') AS vender_nm, COALESCE(a.stock_cd_from,'') AS stock_cd_from,
		        COALESCE(a.stock_cd_to,'') AS stock_cd_to
		 FROM stock_mst a
		 LEFT OUTER JOIN jepum_code b ON a.jepum_cd = b.jepum_cd
		 LEFT OUTER JOIN vender_code c ON a.vender_cd = c.vender_cd
		 WHERE a.inout_gbn = 'KZ' AND a.inout_dt >= ? AND a.inout_dt <= ?
		 ORDER BY a.inout_dt DESC`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load outbound movements", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].VenderNm = conn.DecodeText(rows[i].VenderNm)
	}
	if rows == nil {
		rows = []StockOut{}
	}
	jsonResp(w, rows)
}

func stockSummary(r *http.Request, conn dbConn) ([]StockSummary, error) {
	query := `SELECT a.jepum_cd, COALESCE(b.jepum_nm, a.jepum_cd) AS jepum_nm, COALESCE(a.stock_tot,0) AS stock_tot
	          FROM stock_sum_v6 a
	          LEFT JOIN jepum_code b ON a.jepum_cd = b.jepum_cd
	          WHERE 1=1`
	var args []interface{}
	if tab := r.URL.Query().Get("tab_gbn_cd"); tab != "" {
		query += ` AND b.tab_gbn_cd = ?`
		args = append(args, tab)
	}
	query += ` ORDER BY b.jepum_nm`

	var rows []StockSummary
	if err := conn.Select(r.Context(), &rows, query, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
	}
	return rows, nil
}

func handleStockList(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	rows, err := stockSummary(r, conn)
	if err != nil {
		jsonErr(w, "failed to load stock summary", 500)
		return
	}
	if rows == nil {
		rows = []StockSummary{}
	}
	jsonResp(w, rows)
}

// handleStockExport writes the stock summary as an xlsx workbook for the
// office staff who still live in spreadsheets.
func handleStockExport(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	rows, err := stockSummary(r, conn)
	if err != nil {
		jsonErr(w, "failed to load stock summary", 500)
		return
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"Product Code", "Product Name", "Stock Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.JepumCd)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.JepumNm)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), row.StockTot)
	}

	filename := "stock_" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		logger.Warn("stock export write failed", zap.Error(err))
	}
}

func handleStockInsertOut(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req StockOutReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.InoutSeq == "" {
		req.InoutSeq = "01"
	}
	if req.InoutGbn == "" {
		req.InoutGbn = "KZ"
	}
	if req.ProcessFg == "" {
		req.ProcessFg = "02"
	}
	if req.RcvNm == "" {
		req.RcvNm = "admin"
	}
	if req.StockCdFrom == "" {
		req.StockCdFrom = "01"
	}
	if req.StockCdTo == "" {
		req.StockCdTo = "01"
	}
	if req.WriteNm == "" {
		req.WriteNm = "admin"
	}
	if req.Tm1 == "" {
		req.Tm1 = "180000"
	}
	if req.InoutDt == "" || req.JepumCd == "" || req.ConfirmAmt == 0 {
		jsonErr(w, "required fields missing", 400)
		return
	}

	dt, err := parseYMD(req.InoutDt)
	if err != nil {
		jsonErr(w, "invalid inout_dt", 400)
		return
	}
	prefix, err := seqcode.Prefix('B', dt, 'I')
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}
	inoutDt := stripDashes(req.InoutDt)

	spec := seqcode.Spec{Table: "stock_mst", Column: "inout_no", Prefix: prefix}
	inoutNo, err := seqcode.Insert(r.Context(), conn, spec, func(code string) error {
		_, err := conn.Exec(r.Context(),
			`INSERT INTO stock_mst (inout_no, inout_seq, inout_gbn, inout_dt, jepum_cd, confirm_amt, process_fg, rcv_nm, stock_cd_from, stock_cd_to, write_nm, tm_1, vender_cd, bigo)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			code, req.InoutSeq, req.InoutGbn, inoutDt, req.JepumCd, req.ConfirmAmt,
			req.ProcessFg, req.RcvNm, req.StockCdFrom, req.StockCdTo, req.WriteNm, req.Tm1, req.VenderCd, bigo)
		return err
	})
	if err != nil {
		logger.Error("stock insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register outbound movement", 500)
		return
	}

	hub.DocumentCreated("stock_out", conn.Tenant.Key, inoutNo)
	jsonResp(w, map[string]string{"message": "registered", "inout_no": inoutNo})
}

func handleStockUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req StockOutReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.InoutNo == "" || req.InoutDt == "" || req.JepumCd == "" || req.ConfirmAmt == 0 {
		jsonErr(w, "required fields missing", 400)
		return
	}

	bigo, err := conn.EncodeText(req.Bigo)
	if err != nil {
		jsonErr(w, "bigo not representable in tenant encoding", 400)
		return
	}

	_, err = conn.Exec(r.Context(),
		`UPDATE stock_mst SET inout_dt = ?, jepum_cd = ?, vender_cd = ?, confirm_amt = ?, bigo = ? WHERE inout_no = ?`,
		stripDashes(req.InoutDt), req.JepumCd, req.VenderCd, req.ConfirmAmt, bigo, req.InoutNo)
	if err != nil {
		jsonErr(w, "failed to update outbound movement", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "UPDATE success"})
}

func handleStockDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	inoutNo := r.URL.Query().Get("inout_no")
	if inoutNo == "" {
		jsonErr(w, "inout_no parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM stock_mst WHERE inout_no = ?`, inoutNo); err != nil {
		jsonErr(w, "failed to delete outbound movement", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "DELETE success"})
}
