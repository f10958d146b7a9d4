package main

import (
	"net/http"
)

const venderCols = `vender_cd, COALESCE(vender_nm,'') AS vender_nm, COALESCE(city,'') AS city, COALESCE(address1,'') AS address1, COALESCE(tel,'') AS tel`

func handleVenderAll(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Vender
	err := conn.Select(r.Context(), &rows,
		`SELECT `+venderCols+` FROM vender_code ORDER BY vender_cd`)
	if err != nil {
		jsonErr(w, "failed to load customers", 500)
		return
	}
	for i := range rows {
		rows[i].VenderNm = conn.DecodeText(rows[i].VenderNm)
		rows[i].City = conn.DecodeText(rows[i].City)
		rows[i].Address1 = conn.DecodeText(rows[i].Address1)
	}
	if rows == nil {
		rows = []Vender{}
	}
	jsonResp(w, rows)
}

func handleVenderOut(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Vender
	err := conn.Select(r.Context(), &rows,
		`SELECT `+venderCols+` FROM vender_code WHERE tab_gbn_cd = '01' ORDER BY vender_cd`)
	if err != nil {
		jsonErr(w, "failed to load customers", 500)
		return
	}
	for i := range rows {
		rows[i].VenderNm = conn.DecodeText(rows[i].VenderNm)
		rows[i].City = conn.DecodeText(rows[i].City)
		rows[i].Address1 = conn.DecodeText(rows[i].Address1)
	}
	if rows == nil {
		rows = []Vender{}
	}
	jsonResp(w, rows)
}

func handleJepumAll(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Jepum
	err := conn.Select(r.Context(), &rows,
		`SELECT jepum_cd, COALESCE(jepum_nm,'') AS jepum_nm FROM jepum_code ORDER BY jepum_cd`)
	if err != nil {
		jsonErr(w, "failed to load products", 500)
		return
	}
	decodeJepum(conn, rows)
	if rows == nil {
		rows = []Jepum{}
	}
	jsonResp(w, rows)
}

func handleJepumFinished(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Jepum
	err := conn.Select(r.Context(), &rows,
		`SELECT jepum_cd, COALESCE(jepum_nm,'') AS jepum_nm FROM jepum_code WHERE tab_gbn_cd = '01' ORDER BY jepum_cd`)
	if err != nil {
		jsonErr(w, "failed to load products", 500)
		return
	}
	decodeJepum(conn, rows)
	if rows == nil {
		rows = []Jepum{}
	}
	jsonResp(w, rows)
}

// handleCommonJepum lists products with an optional tab_gbn_cd filter,
// sorted by name the way the reference-data pickers expect.
func handleCommonJepum(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	query := `SELECT jepum_cd, COALESCE(jepum_nm,'') AS jepum_nm FROM jepum_code WHERE 1=1`
	var args []interface{}
	if tab := r.URL.Query().Get("tab_gbn_cd"); tab != "" {
		query += ` AND tab_gbn_cd = ?`
		args = append(args, tab)
	}
	query += ` ORDER BY jepum_nm`

	var rows []Jepum
	if err := conn.Select(r.Context(), &rows, query, args...); err != nil {
		jsonErr(w, "failed to load products", 500)
		return
	}
	decodeJepum(conn, rows)
	if rows == nil {
		rows = []Jepum{}
	}
	jsonResp(w, rows)
}

// handleJepumLine97GM serves one tenant's curated product-line view. The
// selection rule lives in the database view so the range here only fences
// off the in-use code band.
func handleJepumLine97GM(w http.ResponseWriter, r *http.Request) {
	conn, ok := tenantConn(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	var rows []Jepum
	err := conn.Select(r.Context(), &rows,
		`SELECT jepum_cd, COALESCE(jepum_nm,'') AS jepum_nm FROM jepum_code_line_v WHERE jepum_cd BETWEEN '40001' AND '40090' ORDER BY jepum_cd`)
	if err != nil {
		jsonErr(w, "failed to load product lines", 500)
		return
	}
	decodeJepum(conn, rows)
	if rows == nil {
		rows = []Jepum{}
	}
	jsonResp(w, rows)
}

func decodeJepum(conn interface{ DecodeText(string) string }, rows []Jepum) {
	for i := range rows {
		rows[i].JepumNm = conn.DecodeText(rows[i].JepumNm)
	}
}
