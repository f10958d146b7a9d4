package main

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Process codes in lot_hst: 170 is the electrical TEST step, 180 is the
// taping step that splits a tested lot across reels.
const (
	prgTest   = "170"
	prgTaping = "180"
)

func handleTestResultSelect(w http.ResponseWriter, r *http.Request) {
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

	var rows []TestResult
	err := conn.Select(r.Context(), &rows,
		`SELECT h.lot_no, h.jepum_cd, COALESCE(j.jepum_nm,'') AS jepum_nm, COALESCE(h.amt,0) AS amt,
		        COALESCE(h.man_cd,'') AS man_cd, COALESCE(h.bigo_1,'') AS bigo_1, h.work_dt,
		        COALESCE(h.lot_no2,'') AS lot_no2, COALESCE(h.dev_no,'') AS dev_no
		 FROM lot_hst h
		 LEFT JOIN jepum_code j ON h.jepum_cd = j.jepum_cd
		 WHERE h.prg_cd = '170' AND h.work_dt >= ? AND h.work_dt <= ?
		 ORDER BY h.work_dt DESC`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load test results", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].ManCd = conn.DecodeText(rows[i].ManCd)
	}
	if rows == nil {
		rows = []TestResult{}
	}
	jsonResp(w, rows)
}

func handleTestResultInsert(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req TestResultReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.LotNo == "" || req.JepumCd == "" || req.Amt == 0 || req.ManCd == "" || req.WorkDt == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	manCd, err := conn.EncodeText(req.ManCd)
	if err != nil {
		jsonErr(w, "man_cd not representable in tenant encoding", 400)
		return
	}

	_, err = conn.Exec(r.Context(),
		`INSERT INTO lot_hst (lot_no, jepum_cd, amt, man_cd, bigo_1, work_dt, prg_cd, lot_no2, dev_no, lot_seq)
		 VALUES (?, ?, ?, ?, ?, ?, '170', ?, ?, 1)`,
		req.LotNo, req.JepumCd, req.Amt, manCd, req.BinNo, stripDashes(req.WorkDt), req.LotNo2, req.DevNo)
	if err != nil {
		logger.Error("test result insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register test result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "test result registered"})
}

func handleTestResultUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req TestResultReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.LotNo == "" || req.JepumCd == "" || req.Amt == 0 || req.ManCd == "" || req.WorkDt == "" || req.LotNo2 == "" || req.DevNo == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	manCd, err := conn.EncodeText(req.ManCd)
	if err != nil {
		jsonErr(w, "man_cd not representable in tenant encoding", 400)
		return
	}

	_, err = conn.Exec(r.Context(),
		`UPDATE lot_hst SET jepum_cd = ?, amt = ?, man_cd = ?, bigo_1 = ?, work_dt = ?, lot_no2 = ?, dev_no = ?
		 WHERE lot_no = ? AND prg_cd = '170'`,
		req.JepumCd, req.Amt, manCd, req.BinNo, stripDashes(req.WorkDt), req.LotNo2, req.DevNo, req.LotNo)
	if err != nil {
		jsonErr(w, "failed to update test result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "test result updated"})
}

func handleTestResultDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	lotNo := r.URL.Query().Get("lot_no")
	if lotNo == "" {
		jsonErr(w, "lot_no parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM lot_hst WHERE lot_no = ? AND prg_cd = '170'`, lotNo); err != nil {
		jsonErr(w, "failed to delete test result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "test result deleted"})
}

// handleTapingResultSelect lists taping rows grouped per lot so each lot
// shows up once with its total and leftover.
func handleTapingResultSelect(w http.ResponseWriter, r *http.Request) {
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

	var rows []TapingRow
	err := conn.Select(r.Context(), &rows,
		`SELECT h.work_dt, h.lot_no, MAX(h.lot_seq) AS lot_seq, h.jepum_cd,
		        MAX(COALESCE(c.jepum_nm,'')) AS jepum_nm, MAX(COALESCE(h.amt,0)) AS amt,
		        MAX(COALESCE(h.man_cd,'')) AS man_cd, MAX(COALESCE(h.bigo_1,'')) AS bigo_1,
		        MAX(COALESCE(h.bigo_a1,0)) AS bigo_a1
		 FROM lot_hst h
		 LEFT JOIN jepum_code c ON h.jepum_cd = c.jepum_cd
		 WHERE h.prg_cd = '180' AND h.work_dt >= ? AND h.work_dt <= ?
		 GROUP BY h.work_dt, h.lot_no, h.jepum_cd
		 ORDER BY h.work_dt DESC, h.lot_no`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load taping results", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
		rows[i].ManCd = conn.DecodeText(rows[i].ManCd)
	}
	if rows == nil {
		rows = []TapingRow{}
	}
	jsonResp(w, rows)
}

// insertReelSplit writes the reel-split rows for one lot inside tx. Each
// reel takes reel_min_amt until the amount runs out; the final reel also
// records whatever is left after its own fill in bigo_a1.
func insertReelSplit(tx *sqlx.Tx, req TapingReq, manCd interface{}) error {
	workDt := time.Now().Format("20060102")
	leftover := req.Amt
	for i := 1; i <= req.ReelCount; i++ {
		useQty := leftover
		if leftover > req.ReelMinAmt {
			useQty = req.ReelMinAmt
		}
		var bigoA1 float64
		if i == req.ReelCount {
			bigoA1 = leftover - useQty
		}
		_, err := tx.Exec(tx.Rebind(
			`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, man_cd, jepum_cd, work_dt, bigo_1, bigo_a1)
			 VALUES (?, '180', ?, ?, ?, ?, ?, ?, ?)`),
			req.LotNo, i, useQty, manCd, req.JepumCd, workDt, req.BinNo, bigoA1)
		if err != nil {
			return err
		}
		leftover -= useQty
		if leftover < 0 {
			leftover = 0
		}
	}
	return nil
}

func countLotRows(tx *sqlx.Tx, lotNo, prgCd string, firstSeqOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM lot_hst WHERE lot_no = ? AND prg_cd = ?`
	if firstSeqOnly {
		query += ` AND lot_seq = 1`
	}
	var n int
	err := tx.Get(&n, tx.Rebind(query), lotNo, prgCd)
	return n, err
}

func handleTapingResultInsert(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req TapingReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.LotNo == "" || req.Amt == 0 || req.ReelCount == 0 || req.ReelMinAmt == 0 || req.ManCd == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	manCd, err := conn.EncodeText(req.ManCd)
	if err != nil {
		jsonErr(w, "man_cd not representable in tenant encoding", 400)
		return
	}

	tx, err := conn.Beginx()
	if err != nil {
		jsonErr(w, "failed to register taping result", 500)
		return
	}
	defer tx.Rollback()

	tested, err := countLotRows(tx, req.LotNo, prgTest, false)
	if err != nil {
		jsonErr(w, "failed to register taping result", 500)
		return
	}
	if tested == 0 {
		jsonErr(w, "lot has no TEST(170) record", 400)
		return
	}

	taped, err := countLotRows(tx, req.LotNo, prgTaping, true)
	if err != nil {
		jsonErr(w, "failed to register taping result", 500)
		return
	}
	if taped > 0 {
		jsonErr(w, "lot already registered for taping(180)", 400)
		return
	}

	if err := insertReelSplit(tx, req, manCd); err != nil {
		logger.Error("taping insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to register taping result", 500)
		return
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, "failed to register taping result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "taping result registered"})
}

// handleTapingResultUpdate re-splits a lot: the existing 180 rows are
// deleted and the new amount is split again, all in one transaction.
func handleTapingResultUpdate(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req TapingReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.LotNo == "" {
		jsonErr(w, "lot_no is required", 400)
		return
	}
	if req.Amt == 0 || req.ReelCount == 0 || req.ReelMinAmt == 0 || req.ManCd == "" {
		jsonErr(w, "required fields missing", 400)
		return
	}

	manCd, err := conn.EncodeText(req.ManCd)
	if err != nil {
		jsonErr(w, "man_cd not representable in tenant encoding", 400)
		return
	}

	tx, err := conn.Beginx()
	if err != nil {
		jsonErr(w, "failed to update taping result", 500)
		return
	}
	defer tx.Rollback()

	tested, err := countLotRows(tx, req.LotNo, prgTest, false)
	if err != nil {
		jsonErr(w, "failed to update taping result", 500)
		return
	}
	if tested == 0 {
		jsonErr(w, "lot has no TEST(170) record", 400)
		return
	}

	if _, err := tx.Exec(tx.Rebind(`DELETE FROM lot_hst WHERE lot_no = ? AND prg_cd = '180'`), req.LotNo); err != nil {
		jsonErr(w, "failed to update taping result", 500)
		return
	}
	if err := insertReelSplit(tx, req, manCd); err != nil {
		logger.Error("taping re-split failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
		jsonErr(w, "failed to update taping result", 500)
		return
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, "failed to update taping result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "taping result updated"})
}

func handleTapingResultDelete(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	lotNo := r.URL.Query().Get("lot_no")
	if lotNo == "" {
		jsonErr(w, "lot_no parameter is required", 400)
		return
	}
	if _, err := conn.Exec(r.Context(), `DELETE FROM lot_hst WHERE lot_no = ? AND prg_cd = '180'`, lotNo); err != nil {
		jsonErr(w, "failed to delete taping result", 500)
		return
	}
	jsonResp(w, map[string]string{"message": "taping result deleted"})
}

// handleTapingCheckLot answers whether a lot is eligible for taping: it
// must have a TEST row and must not already be taped.
func handleTapingCheckLot(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	lotNo := r.URL.Query().Get("lot_no")
	if lotNo == "" {
		jsonErr(w, "lot_no parameter is required", 400)
		return
	}

	var tested struct {
		JepumCd string `db:"jepum_cd"`
		BinNo   string `db:"bigo_1"`
	}
	err := conn.Get(r.Context(), &tested,
		`SELECT jepum_cd, COALESCE(bigo_1,'') AS bigo_1 FROM lot_hst WHERE lot_no = ? AND prg_cd = '170'`,
		lotNo)
	if err != nil {
		jsonErr(w, "lot has no TEST(170) record", 400)
		return
	}

	var taped int
	err = conn.Get(r.Context(), &taped,
		`SELECT COUNT(*) FROM lot_hst WHERE lot_no = ? AND prg_cd = '180' AND lot_seq = 1`, lotNo)
	if err != nil {
		jsonErr(w, "failed to check lot", 500)
		return
	}
	if taped > 0 {
		jsonErr(w, "lot already registered for taping(180)", 400)
		return
	}

	jsonResp(w, map[string]string{
		"message":  "OK",
		"jepum_cd": tested.JepumCd,
		"bin_no":   tested.BinNo,
	})
}

// handleLotNoInform looks a product up by its secondary lot number,
// matching either the lot number with its leading character stripped or
// the stored bigo39-bigo40 composite.
func handleLotNoInform(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	lotNo2 := r.URL.Query().Get("lot_no2")
	if lotNo2 == "" {
		jsonErr(w, "lot_no2 parameter is required", 400)
		return
	}

	var rows []LotInform
	err := conn.Select(r.Context(), &rows,
		`SELECT TOP 1 h.jepum_cd, COALESCE(j.jepum_nm,'') AS jepum_nm,
		        COALESCE(l.bigo39,'') AS bigo39, COALESCE(l.bigo40,'') AS bigo40
		 FROM lot_mst h
		 LEFT JOIN jepum_code j ON h.jepum_cd = j.jepum_cd
		 LEFT JOIN lot_bigo l ON h.lot_no = l.lot_no
		 WHERE SUBSTRING(h.lot_no, 2, LEN(h.lot_no)) = ?
		    OR (COALESCE(l.bigo39,'') + '-' + COALESCE(l.bigo40,'')) = ?`,
		lotNo2, lotNo2)
	if err != nil {
		jsonErr(w, "failed to look up lot", 500)
		return
	}
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
	}
	if rows == nil {
		rows = []LotInform{}
	}
	jsonResp(w, rows)
}

func handleTestManCd(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	deptCd := r.URL.Query().Get("dept_cd")
	if deptCd == "" {
		jsonErr(w, "dept_cd parameter is required", 400)
		return
	}

	var rows []Worker
	err := conn.Select(r.Context(), &rows,
		`SELECT COALESCE(emp_nmk,'') AS emp_nmk FROM hmtperson WHERE dept_cd = ?`, deptCd)
	if err != nil {
		jsonErr(w, "failed to load workers", 500)
		return
	}
	for i := range rows {
		rows[i].EmpNmk = conn.DecodeText(rows[i].EmpNmk)
	}
	if rows == nil {
		rows = []Worker{}
	}
	jsonResp(w, rows)
}
