package main

import (
	"testing"
)

func TestTestResultLifecycle(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO jepum_code VALUES ('J1', '가제품', '', '01')`)

	body := `{"lot_no":"L2503001","jepum_cd":"J1","amt":1000,"man_cd":"김측정","work_dt":"2025-03-06","bin_no":"B3"}`
	w := doReq(t, "POST", "/api/insert/etc/test-result?v_db=acme", body)
	if w.Code != 200 {
		t.Fatalf("insert status = %d body = %s", w.Code, w.Body.String())
	}

	w = doReq(t, "GET", "/api/select/etc/test-result?v_db=acme&from_dt=20250301&to_dt=20250331", "")
	var rows []TestResult
	decodeJSON(t, w, &rows)
	if len(rows) != 1 || rows[0].LotNo != "L2503001" || rows[0].WorkDt != "20250306" {
		t.Fatalf("rows = %+v", rows)
	}

	upd := `{"lot_no":"L2503001","jepum_cd":"J1","amt":950,"man_cd":"김측정","work_dt":"2025-03-07","lot_no2":"X1","dev_no":"3"}`
	w = doReq(t, "PUT", "/api/update/etc/test-result?v_db=acme", upd)
	if w.Code != 200 {
		t.Fatalf("update status = %d body = %s", w.Code, w.Body.String())
	}
	var amt float64
	db.Get(&amt, `SELECT amt FROM lot_hst WHERE lot_no = 'L2503001' AND prg_cd = '170'`)
	if amt != 950 {
		t.Errorf("amt after update = %v", amt)
	}

	w = doReq(t, "DELETE", "/api/delete/etc/test-result?v_db=acme&lot_no=L2503001", "")
	if w.Code != 200 {
		t.Fatalf("delete status = %d", w.Code)
	}
	var n int
	db.Get(&n, `SELECT COUNT(*) FROM lot_hst`)
	if n != 0 {
		t.Errorf("rows left = %d", n)
	}
}

func TestTapingRequiresTestRecord(t *testing.T) {
	setupTest(t)

	body := `{"lot_no":"L1","amt":1000,"reel_count":3,"reel_min_amt":400,"man_cd":"김측정"}`
	w := doReq(t, "POST", "/api/insert/etc/tapping-result?v_db=acme", body)
	if w.Code != 400 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["error"] == "" {
		t.Error("no error message")
	}
}

func TestTapingSplitsAcrossReels(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, bigo_1, work_dt) VALUES ('L1','170',1,1000,'J1','B3','20250301')`)

	// 1000 across 3 reels of 400: 400, 400, 200, leftover 0
	body := `{"lot_no":"L1","amt":1000,"reel_count":3,"reel_min_amt":400,"man_cd":"김측정","jepum_cd":"J1","bin_no":"B3"}`
	w := doReq(t, "POST", "/api/insert/etc/tapping-result?v_db=acme", body)
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	type reel struct {
		LotSeq int     `db:"lot_seq"`
		Amt    float64 `db:"amt"`
		BigoA1 float64 `db:"bigo_a1"`
	}
	var reels []reel
	if err := db.Select(&reels, `SELECT lot_seq, amt, bigo_a1 FROM lot_hst WHERE lot_no = 'L1' AND prg_cd = '180' ORDER BY lot_seq`); err != nil {
		t.Fatal(err)
	}
	if len(reels) != 3 {
		t.Fatalf("reels = %d", len(reels))
	}
	wantAmt := []float64{400, 400, 200}
	for i, r := range reels {
		if r.LotSeq != i+1 || r.Amt != wantAmt[i] {
			t.Errorf("reel %d = %+v", i, r)
		}
	}
	if reels[2].BigoA1 != 0 {
		t.Errorf("final leftover = %v", reels[2].BigoA1)
	}

	// registering the same lot a second time is rejected
	w = doReq(t, "POST", "/api/insert/etc/tapping-result?v_db=acme", body)
	if w.Code != 400 {
		t.Errorf("duplicate taping: status = %d", w.Code)
	}
}

func TestTapingShortFinalReelRecordsLeftover(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, bigo_1, work_dt) VALUES ('L1','170',1,1000,'J1','B3','20250301')`)

	// 1000 across 2 reels of 400: the second reel takes 400 and notes the
	// 200 that never fit
	body := `{"lot_no":"L1","amt":1000,"reel_count":2,"reel_min_amt":400,"man_cd":"김측정","jepum_cd":"J1"}`
	w := doReq(t, "POST", "/api/insert/etc/tapping-result?v_db=acme", body)
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var last struct {
		Amt    float64 `db:"amt"`
		BigoA1 float64 `db:"bigo_a1"`
	}
	if err := db.Get(&last, `SELECT amt, bigo_a1 FROM lot_hst WHERE lot_no = 'L1' AND prg_cd = '180' AND lot_seq = 2`); err != nil {
		t.Fatal(err)
	}
	if last.Amt != 400 || last.BigoA1 != 200 {
		t.Errorf("final reel = %+v", last)
	}
}

func TestTapingUpdateResplits(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, bigo_1, work_dt) VALUES ('L1','170',1,1000,'J1','B3','20250301')`)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, work_dt) VALUES ('L1','180',1,500,'J1','20250302')`)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, work_dt) VALUES ('L1','180',2,500,'J1','20250302')`)

	body := `{"lot_no":"L1","amt":900,"reel_count":3,"reel_min_amt":300,"man_cd":"김측정","jepum_cd":"J1"}`
	w := doReq(t, "PUT", "/api/update/etc/tapping-result?v_db=acme", body)
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var n int
	db.Get(&n, `SELECT COUNT(*) FROM lot_hst WHERE lot_no = 'L1' AND prg_cd = '180'`)
	if n != 3 {
		t.Errorf("reels after re-split = %d", n)
	}
	var total float64
	db.Get(&total, `SELECT SUM(amt) FROM lot_hst WHERE lot_no = 'L1' AND prg_cd = '180'`)
	if total != 900 {
		t.Errorf("total after re-split = %v", total)
	}
	// the 170 row is untouched
	db.Get(&n, `SELECT COUNT(*) FROM lot_hst WHERE lot_no = 'L1' AND prg_cd = '170'`)
	if n != 1 {
		t.Errorf("test rows = %d", n)
	}
}

func TestTapingCheckLot(t *testing.T) {
	db := setupTest(t)
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, bigo_1, work_dt) VALUES ('L1','170',1,1000,'J1','B7','20250301')`)

	w := doReq(t, "GET", "/api/select/etc/tapping-check-lot?v_db=acme&lot_no=L1", "")
	if w.Code != 200 {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["message"] != "OK" || resp["jepum_cd"] != "J1" || resp["bin_no"] != "B7" {
		t.Errorf("resp = %+v", resp)
	}

	// unknown lot fails the check
	w = doReq(t, "GET", "/api/select/etc/tapping-check-lot?v_db=acme&lot_no=NOPE", "")
	if w.Code != 400 {
		t.Errorf("unknown lot: status = %d", w.Code)
	}

	// already taped lot fails too
	db.MustExec(`INSERT INTO lot_hst (lot_no, prg_cd, lot_seq, amt, jepum_cd, work_dt) VALUES ('L1','180',1,400,'J1','20250302')`)
	w = doReq(t, "GET", "/api/select/etc/tapping-check-lot?v_db=acme&lot_no=L1", "")
	if w.Code != 400 {
		t.Errorf("taped lot: status = %d", w.Code)
	}
}
