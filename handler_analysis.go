package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mesgw/internal/fitting"
	"mesgw/internal/tenant"
)

const analysisTimeLayout = "2006-01-02 15:04:05"

func handleAnalysisXYOptions(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var gbnSet []interface{}
	switch r.URL.Query().Get("gbn_type") {
	case "x1":
		gbnSet = []interface{}{"x1", "y"}
	case "x2":
		gbnSet = []interface{}{"x2", "y"}
	default:
		gbnSet = []interface{}{"x", "y"}
	}

	type optionRow struct {
		Gbn  string `db:"gbn"`
		Col1 string `db:"col_1"`
	}
	var rows []optionRow
	err := conn.Select(r.Context(), &rows,
		`SELECT gbn, col_1 FROM mon_06_v WHERE gbn IN (?, ?) GROUP BY gbn, col_1 ORDER BY gbn, col_1`,
		gbnSet...)
	if err != nil {
		jsonErr(w, "failed to load axis options", 500)
		return
	}

	options := map[string][]string{
		"x_options": {},
		"y_options": {},
	}
	for _, row := range rows {
		name := conn.DecodeText(row.Col1)
		if len(row.Gbn) > 0 && row.Gbn[0] == 'x' {
			options["x_options"] = append(options["x_options"], name)
		} else if row.Gbn == "y" {
			options["y_options"] = append(options["y_options"], name)
		}
	}
	jsonResp(w, options)
}

func handleAnalysisCollectData(w http.ResponseWriter, r *http.Request) {
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

	var rows []SeriesPoint
	err := conn.Select(r.Context(), &rows,
		`SELECT ymd, col_1, amt FROM mon_06_v WHERE ymd BETWEEN ? AND ? ORDER BY ymd, col_1`,
		fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load series data", 500)
		return
	}
	for i := range rows {
		rows[i].Col1 = conn.DecodeText(rows[i].Col1)
	}
	if rows == nil {
		rows = []SeriesPoint{}
	}
	jsonResp(w, rows)
}

// pairedSeries loads the x and y samples that share a ymd.
func pairedSeries(r *http.Request, conn *tenant.Conn, gbnX, colX, gbnY, colY, fromDt, toDt string) ([]float64, []float64, error) {
	type pair struct {
		X float64 `db:"x_amt"`
		Y float64 `db:"y_amt"`
	}
	var rows []pair
	err := conn.Select(r.Context(), &rows,
		`SELECT x_data.amt AS x_amt, y_data.amt AS y_amt
		 FROM (SELECT ymd, amt FROM mon_06_v WHERE gbn = ? AND col_1 = ? AND ymd BETWEEN ? AND ?) AS x_data
		 JOIN (SELECT ymd, amt FROM mon_06_v WHERE gbn = ? AND col_1 = ? AND ymd BETWEEN ? AND ?) AS y_data
		   ON x_data.ymd = y_data.ymd`,
		gbnX, colX, fromDt, toDt,
		gbnY, colY, fromDt, toDt)
	if err != nil {
		return nil, nil, err
	}
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, row := range rows {
		xs[i] = row.X
		ys[i] = row.Y
	}
	return xs, ys, nil
}

func analysisParams(w http.ResponseWriter, r *http.Request) (gbnX, colX, gbnY, colY, fromDt, toDt string, ok bool) {
	q := r.URL.Query()
	gbnX, colX = q.Get("gbn_x"), q.Get("col_1_x")
	gbnY, colY = q.Get("gbn_y"), q.Get("col_1_y")
	fromDt, toDt = q.Get("from_dt"), q.Get("to_dt")
	if gbnX == "" || colX == "" || gbnY == "" || colY == "" || fromDt == "" || toDt == "" {
		jsonErr(w, "gbn_x, col_1_x, gbn_y, col_1_y, from_dt, to_dt are all required", 400)
		return "", "", "", "", "", "", false
	}
	return gbnX, colX, gbnY, colY, fromDt, toDt, true
}

func scatterData(xs, ys []float64) [][2]float64 {
	points := make([][2]float64, len(xs))
	for i := range xs {
		points[i] = [2]float64{xs[i], ys[i]}
	}
	return points
}

func minMax(xs []float64) (min, max float64) {
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

// insertedID reads the identity assigned to the last insert. sqlite
// reports it through LastInsertId; the mssql driver never does, so fall
// back to @@IDENTITY, which is session-scoped and therefore survives the
// batch boundary. The tenant pool holds a single connection, so the
// follow-up query runs on the session that did the insert.
func insertedID(r *http.Request, conn *tenant.Conn, res sql.Result) (int64, error) {
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		return id, nil
	}
	var id int64
	err := conn.Get(r.Context(), &id, `SELECT CAST(@@IDENTITY AS INT)`)
	return id, err
}

func handleDynamicAnalysis(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	gbnX, colX, gbnY, colY, fromDt, toDt, ok := analysisParams(w, r)
	if !ok {
		return
	}

	encColX, err := conn.EncodeText(colX)
	if err != nil {
		jsonErr(w, "invalid col_1_x", 400)
		return
	}
	encColY, err := conn.EncodeText(colY)
	if err != nil {
		jsonErr(w, "invalid col_1_y", 400)
		return
	}

	xs, ys, err := pairedSeries(r, conn, gbnX, asString(encColX), gbnY, asString(encColY), fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load analysis data", 500)
		return
	}
	if len(xs) < 2 {
		jsonErr(w, "not enough paired samples for analysis", 400)
		return
	}

	fit, err := fitting.Linear(xs, ys)
	if err != nil {
		jsonErr(w, "not enough paired samples for analysis", 400)
		return
	}
	correlation := fitting.Correlation(xs, ys)

	minX, maxX := minMax(xs)
	yMin, yMax := fit.Predict(minX), fit.Predict(maxX)

	xVariable := gbnX + " / " + colX
	yVariable := gbnY + " / " + colY
	equation := fmt.Sprintf("y = %.4fx + %.4f", fit.Slope, fit.Intercept)
	interpretation := fmt.Sprintf(
		"'%s' 값이 1단위 증가할 때 '%s' 값은(는) 평균적으로 %.4f만큼 변합니다. 이 모델은 Y값 변동성의 %.2f%%를 설명합니다.",
		colX, colY, fit.Slope, fit.RSquared*100)

	scatter := scatterData(xs, ys)
	scatterJSON, _ := json.Marshal(scatter)
	lineJSON, _ := json.Marshal([][2]float64{{minX, yMin}, {maxX, yMax}})

	analyst, err := conn.EncodeText("관리자")
	if err != nil {
		jsonErr(w, "failed to save analysis", 500)
		return
	}
	encXVar, _ := conn.EncodeText(xVariable)
	encYVar, _ := conn.EncodeText(yVariable)
	encInterp, _ := conn.EncodeText(interpretation)

	res, err := conn.Exec(r.Context(),
		`INSERT INTO analysis_history
		 (analysis_dt, analyst_nm, x_variable, y_variable, correlation, r_squared, equation, interpretation, scatter_data, line_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Format(analysisTimeLayout), analyst, encXVar, encYVar,
		correlation, fit.RSquared, equation, encInterp,
		string(scatterJSON), string(lineJSON))
	if err != nil {
		jsonErr(w, "failed to save analysis", 500)
		return
	}
	newID, err := insertedID(r, conn, res)
	if err != nil {
		jsonErr(w, "failed to save analysis", 500)
		return
	}

	jsonResp(w, map[string]interface{}{
		"new_analysis_id": newID,
		"analysis_summary": AnalysisSummary{
			XVariable:      xVariable,
			YVariable:      yVariable,
			Correlation:    correlation,
			RSquared:       fit.RSquared,
			Equation:       equation,
			Interpretation: interpretation,
		},
		"scatter_data": scatter,
		"line_data": [][]map[string][2]float64{{
			{"coord": {minX, yMin}},
			{"coord": {maxX, yMax}},
		}},
	})
}

func handleDynamicAnalysis2nd(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	gbnX, colX, gbnY, colY, fromDt, toDt, ok := analysisParams(w, r)
	if !ok {
		return
	}

	encColX, err := conn.EncodeText(colX)
	if err != nil {
		jsonErr(w, "invalid col_1_x", 400)
		return
	}
	encColY, err := conn.EncodeText(colY)
	if err != nil {
		jsonErr(w, "invalid col_1_y", 400)
		return
	}

	xs, ys, err := pairedSeries(r, conn, gbnX, asString(encColX), gbnY, asString(encColY), fromDt, toDt)
	if err != nil {
		jsonErr(w, "failed to load analysis data", 500)
		return
	}
	if len(xs) < 3 {
		jsonErr(w, "not enough paired samples for analysis", 400)
		return
	}

	fit, err := fitting.Quadratic(xs, ys)
	if err != nil {
		jsonErr(w, "not enough paired samples for analysis", 400)
		return
	}
	correlation := fitting.Correlation(xs, ys)

	minX, maxX := minMax(xs)
	const curvePoints = 100
	curve := make([][2]float64, curvePoints)
	step := (maxX - minX) / float64(curvePoints-1)
	for i := 0; i < curvePoints; i++ {
		x := minX + step*float64(i)
		curve[i] = [2]float64{x, fit.Predict(x)}
	}

	equation := fmt.Sprintf("y = %.4fx² + %.4fx + %.4f", fit.A, fit.B, fit.C)
	interpretation := fmt.Sprintf(
		"'%s'와(과) '%s'는 2차 곡선 관계를 보입니다. 이 모델은 Y값 변동성의 %.2f%%를 설명합니다.",
		colX, colY, fit.RSquared*100)

	jsonResp(w, map[string]interface{}{
		"analysis_summary": AnalysisSummary{
			XVariable:      gbnX + " / " + colX,
			YVariable:      gbnY + " / " + colY,
			Correlation:    correlation,
			RSquared:       fit.RSquared,
			Equation:       equation,
			Interpretation: interpretation,
		},
		"scatter_data": scatterData(xs, ys),
		"line_data":    curve,
	})
}

func handleAnalysisHistory(w http.ResponseWriter, r *http.Request) {
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

	var rows []AnalysisHistoryRow
	err = conn.Select(r.Context(), &rows,
		`SELECT id, analysis_dt, COALESCE(analyst_nm,'') AS analyst_nm,
		        COALESCE(x_variable,'') AS x_variable, COALESCE(y_variable,'') AS y_variable,
		        correlation, r_squared
		 FROM analysis_history
		 WHERE analysis_dt >= ? AND analysis_dt < ?
		 ORDER BY id DESC`,
		from.Format(analysisTimeLayout), to.AddDate(0, 0, 1).Format(analysisTimeLayout))
	if err != nil {
		jsonErr(w, "failed to load analysis history", 500)
		return
	}
	for i := range rows {
		rows[i].AnalystNm = conn.DecodeText(rows[i].AnalystNm)
		rows[i].XVariable = conn.DecodeText(rows[i].XVariable)
		rows[i].YVariable = conn.DecodeText(rows[i].YVariable)
	}
	if rows == nil {
		rows = []AnalysisHistoryRow{}
	}
	jsonResp(w, rows)
}

func handleAnalysisResultReport(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	analysisID := r.URL.Query().Get("analysis_id")
	if analysisID == "" {
		jsonErr(w, "analysis_id parameter is required", 400)
		return
	}

	var row struct {
		AnalysisDt     string  `db:"analysis_dt"`
		AnalystNm      string  `db:"analyst_nm"`
		XVariable      string  `db:"x_variable"`
		YVariable      string  `db:"y_variable"`
		Correlation    float64 `db:"correlation"`
		RSquared       float64 `db:"r_squared"`
		Equation       string  `db:"equation"`
		Interpretation string  `db:"interpretation"`
		ScatterData    string  `db:"scatter_data"`
		LineData       string  `db:"line_data"`
	}
	err := conn.Get(r.Context(), &row,
		`SELECT analysis_dt, COALESCE(analyst_nm,'') AS analyst_nm,
		        COALESCE(x_variable,'') AS x_variable, COALESCE(y_variable,'') AS y_variable,
		        correlation, r_squared,
		        COALESCE(equation,'') AS equation, COALESCE(interpretation,'') AS interpretation,
		        COALESCE(scatter_data,'[]') AS scatter_data, COALESCE(line_data,'[]') AS line_data
		 FROM analysis_history WHERE id = ?`,
		analysisID)
	if err == sql.ErrNoRows {
		jsonErr(w, "analysis result not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, "failed to load analysis result", 500)
		return
	}

	var scatter [][2]float64
	if err := json.Unmarshal([]byte(row.ScatterData), &scatter); err != nil {
		scatter = nil
	}
	var line [][2]float64
	if err := json.Unmarshal([]byte(row.LineData), &line); err != nil || len(line) < 2 {
		jsonErr(w, "stored line data is malformed", 500)
		return
	}

	jsonResp(w, map[string]interface{}{
		"analysis_summary": map[string]interface{}{
			"report_date":    row.AnalysisDt,
			"analyst":        conn.DecodeText(row.AnalystNm),
			"x_variable":     conn.DecodeText(row.XVariable),
			"y_variable":     conn.DecodeText(row.YVariable),
			"correlation":    row.Correlation,
			"r_squared":      row.RSquared,
			"equation":       row.Equation,
			"interpretation": conn.DecodeText(row.Interpretation),
		},
		"scatter_data": scatter,
		"line_data": []map[string][2]float64{
			{"coord": line[0]},
			{"coord": line[1]},
		},
	})
}
