package main

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func handleEquipMst(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Equip
	err := conn.Select(r.Context(), &rows,
		`SELECT a.equip_cd, COALESCE(a.equip_nm,'') AS equip_nm FROM equip_mst a WHERE a.use_yn = '01'`)
	if err != nil {
		jsonErr(w, "failed to load equipment", 500)
		return
	}
	for i := range rows {
		rows[i].EquipNm = conn.DecodeText(rows[i].EquipNm)
	}
	if rows == nil {
		rows = []Equip{}
	}
	jsonResp(w, rows)
}

// inspectionAge renders the days-elapsed label for an inspection date in
// YYYYMMDD form. Equipment that has never been inspected gets the fixed
// no-history label the mobile screens key on.
func inspectionAge(equipDt string, now time.Time) string {
	if equipDt == "" {
		return "최근점검내역없음"
	}
	dt, err := time.Parse("20060102", equipDt)
	if err != nil {
		return "최근점검내역없음"
	}
	days := int(now.Sub(dt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%d일 경과", days)
}

func handleEquipInspect(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []EquipInspect
	err := conn.Select(r.Context(), &rows,
		`SELECT a.equip_cd, COALESCE(a.equip_nm,'') AS equip_nm, COALESCE(b.equip_dt,'') AS equip_dt
		 FROM equip_mst a
		 LEFT JOIN (
		     SELECT equip_cd, MAX(equip_dt) AS equip_dt
		     FROM equip_hst
		     GROUP BY equip_cd
		 ) b ON a.equip_cd = b.equip_cd
		 WHERE a.use_yn = '01'`)
	if err != nil {
		jsonErr(w, "failed to load inspections", 500)
		return
	}
	now := time.Now()
	for i := range rows {
		rows[i].EquipNm = conn.DecodeText(rows[i].EquipNm)
		rows[i].DiffDt = inspectionAge(rows[i].EquipDt, now)
	}
	if rows == nil {
		rows = []EquipInspect{}
	}
	jsonResp(w, rows)
}

func handleReportEquipmentList(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []EquipmentItem
	err := conn.Select(r.Context(), &rows,
		`SELECT code, COALESCE(name,'') AS name, COALESCE(location,'') AS location, COALESCE(category,'') AS category
		 FROM EQUIPMENT_LIST ORDER BY code`)
	if err != nil {
		jsonErr(w, "failed to load equipment list", 500)
		return
	}
	for i := range rows {
		rows[i].Name = conn.DecodeText(rows[i].Name)
		rows[i].Location = conn.DecodeText(rows[i].Location)
		rows[i].Category = conn.DecodeText(rows[i].Category)
	}
	if rows == nil {
		rows = []EquipmentItem{}
	}
	jsonResp(w, rows)
}

// handleReportQuestions returns the checklist questions for one piece of
// equipment as a bare string array.
func handleReportQuestions(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	code := r.URL.Query().Get("code")
	if code == "" {
		jsonErr(w, "code parameter is required", 400)
		return
	}

	var questions []string
	err := conn.Select(r.Context(), &questions,
		`SELECT question FROM QUESTION_LIST WHERE code = ?`, code)
	if err != nil {
		jsonErr(w, "failed to load questions", 500)
		return
	}
	for i := range questions {
		questions[i] = conn.DecodeText(questions[i])
	}
	if questions == nil {
		questions = []string{}
	}
	jsonResp(w, questions)
}

func handleReportHistoryLog(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []InspectionRow
	err := conn.Select(r.Context(), &rows,
		`SELECT code, COALESCE(question,'') AS question, COALESCE(answer,'') AS answer,
		        COALESCE(photo_filename,'') AS photo_filename
		 FROM INSPECTION_MST`)
	if err != nil {
		jsonErr(w, "failed to load inspection history", 500)
		return
	}
	for i := range rows {
		rows[i].Question = conn.DecodeText(rows[i].Question)
		rows[i].Answer = conn.DecodeText(rows[i].Answer)
	}
	if rows == nil {
		rows = []InspectionRow{}
	}
	jsonResp(w, rows)
}

// handleReportChecklist stores every checklist answer of one inspection
// in a single transaction; a half-written report never lands.
func handleReportChecklist(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var req ChecklistReq
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid JSON body", 400)
		return
	}
	if req.Code == "" || len(req.Checklist) == 0 {
		jsonErr(w, "code and a non-empty checklist are required", 400)
		return
	}

	tx, err := conn.Beginx()
	if err != nil {
		jsonErr(w, "failed to save report", 500)
		return
	}
	defer tx.Rollback()

	var photo interface{}
	if req.PhotoFilename != "" {
		photo = req.PhotoFilename
	}

	for _, item := range req.Checklist {
		question, err := conn.EncodeText(item.Question)
		if err != nil {
			jsonErr(w, "question not representable in tenant encoding", 400)
			return
		}
		answer, err := conn.EncodeText(item.Answer)
		if err != nil {
			jsonErr(w, "answer not representable in tenant encoding", 400)
			return
		}
		_, err = tx.Exec(tx.Rebind(
			`INSERT INTO INSPECTION_MST (code, question, answer, photo_filename) VALUES (?, ?, ?, ?)`),
			req.Code, question, answer, photo)
		if err != nil {
			logger.Error("checklist insert failed", zap.String("tenant", conn.Tenant.Key), zap.Error(err))
			jsonErr(w, "failed to save report", 500)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, "failed to save report", 500)
		return
	}

	jsonCreated(w, map[string]string{"message": "inspection report saved"})
}
