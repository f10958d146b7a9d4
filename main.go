package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"mesgw/internal/audit"
	"mesgw/internal/tenant"
	"mesgw/internal/websocket"
)

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envOrInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// auditLabels maps request paths to the operation names stored in the
// usage log. Paths not listed here are logged under their raw path.
var auditLabels = map[string]string{
	"/api/insert/suju/register":      "order register",
	"/api/insert/stock/out":          "stock out register",
	"/api/insert/etc/test-result":    "test result register",
	"/api/insert/etc/tapping-result": "taping register",
	"/api/insert/report/checklist":   "inspection report",
	"/api/segsan/insert":             "production register",
	"/api/chulha/insert":             "shipment register",
	"/api/update/suju/update":        "order update",
	"/api/update/stock/update":       "stock out update",
	"/api/delete/suju/delete":        "order delete",
	"/api/delete/stock/delete":       "stock out delete",
}

func main() {
	port := flag.Int("port", envOrInt("MESGW_PORT", 8999), "HTTP port")
	tenantsPath := flag.String("tenants", envOr("MESGW_TENANTS", "tenants.yaml"), "tenant registry file")
	uploads := flag.String("uploads", envOr("MESGW_UPLOADS", "uploads"), "upload directory")
	dbHost := flag.String("db-host", envOr("MESGW_DB_HOST", "127.0.0.1"), "default tenant database host")
	dbPort := flag.Int("db-port", envOrInt("MESGW_DB_PORT", 1433), "default tenant database port")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger = log

	uploadDir = *uploads

	registry, err := tenant.LoadRegistry(*tenantsPath, tenant.Defaults{
		Host: *dbHost,
		Port: *dbPort,
	})
	if err != nil {
		log.Fatal("tenant registry load failed", zap.Error(err))
	}
	provider = tenant.NewProvider(registry, log)
	hub = websocket.NewHub(log)

	auditor := &audit.Logger{
		Provider: provider,
		Log:      log,
		Actor:    "api",
		CorpCode: "HQ",
		Labels:   auditLabels,
	}

	mux := newMux()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)

	addr := fmt.Sprintf(":%d", *port)
	log.Info("server starting", zap.String("addr", addr))
	err = http.ListenAndServe(addr, logging(log, usageLog(auditor, corsHandler)))
	log.Fatal("server stopped", zap.Error(err))
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			jsonErr(w, "not found", 404)
			return
		}
		jsonResp(w, map[string]string{
			"status":  "ok",
			"message": "Main API is running successfully.",
		})
	})

	mux.HandleFunc("/ws", hub.Handle)
	mux.HandleFunc("/api/", routeAPI)
	return mux
}

// routeAPI dispatches on the path after /api/. Method mismatches on a
// known path fall through to the not-found response, matching how the
// upstream clients probe the surface.
func routeAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")
	path = strings.TrimSuffix(path, "/")

	// file download carries the filename as a path segment
	if strings.HasPrefix(path, "select/file/download/") && r.Method == "GET" {
		handleFileDownload(w, r, strings.TrimPrefix(path, "select/file/download/"))
		return
	}

	switch {
	// master data
	case path == "select/vender/all" && r.Method == "GET":
		handleVenderAll(w, r)
	case path == "select/vender/out" && r.Method == "GET":
		handleVenderOut(w, r)
	case path == "select/jepum/all" && r.Method == "GET":
		handleJepumAll(w, r)
	case path == "select/jepum/jepum" && r.Method == "GET":
		handleJepumFinished(w, r)
	case path == "common/jepum" && r.Method == "GET":
		handleCommonJepum(w, r)
	case path == "97gm/jepum/line" && r.Method == "GET":
		handleJepumLine97GM(w, r)

	// stock
	case path == "select/stock/jepum" && r.Method == "GET":
		handleStockJepum(w, r)
	case path == "select/stock/jepum-out" && r.Method == "GET":
		handleStockJepumOut(w, r)
	case path == "stock/list" && r.Method == "GET":
		handleStockList(w, r)
	case path == "stock/export" && r.Method == "GET":
		handleStockExport(w, r)
	case path == "insert/stock/out" && r.Method == "POST":
		handleStockInsertOut(w, r)
	case path == "update/stock/update" && r.Method == "PUT":
		handleStockUpdate(w, r)
	case path == "delete/stock/delete" && r.Method == "DELETE":
		handleStockDelete(w, r)

	// orders
	case path == "select/suju/all" && r.Method == "GET":
		handleSujuAll(w, r)
	case path == "insert/suju/register" && r.Method == "POST":
		handleSujuRegister(w, r)
	case path == "update/suju/update" && r.Method == "PUT":
		handleSujuUpdate(w, r)
	case path == "delete/suju/delete" && r.Method == "DELETE":
		handleSujuDelete(w, r)

	// production
	case path == "segsan/insert" && r.Method == "POST":
		handleSegsanInsert(w, r)
	case path == "segsan/list" && r.Method == "GET":
		handleSegsanList(w, r)
	case path == "segsan/update" && r.Method == "PUT":
		handleSegsanUpdate(w, r)
	case path == "segsan/delete" && r.Method == "DELETE":
		handleSegsanDelete(w, r)
	case path == "select/segsan/process" && r.Method == "GET":
		handleSegsanProcess(w, r)

	// shipments
	case path == "chulha/insert" && r.Method == "POST":
		handleChulhaInsert(w, r)
	case path == "chulha/list" && r.Method == "GET":
		handleChulhaList(w, r)
	case path == "chulha/update" && r.Method == "PUT":
		handleChulhaUpdate(w, r)
	case path == "chulha/delete" && r.Method == "DELETE":
		handleChulhaDelete(w, r)

	// lot processes
	case path == "select/etc/test-result" && r.Method == "GET":
		handleTestResultSelect(w, r)
	case path == "insert/etc/test-result" && r.Method == "POST":
		handleTestResultInsert(w, r)
	case path == "update/etc/test-result" && r.Method == "PUT":
		handleTestResultUpdate(w, r)
	case path == "delete/etc/test-result" && r.Method == "DELETE":
		handleTestResultDelete(w, r)
	case path == "select/etc/tapping-result" && r.Method == "GET":
		handleTapingResultSelect(w, r)
	case path == "insert/etc/tapping-result" && r.Method == "POST":
		handleTapingResultInsert(w, r)
	case path == "update/etc/tapping-result" && r.Method == "PUT":
		handleTapingResultUpdate(w, r)
	case path == "delete/etc/tapping-result" && r.Method == "DELETE":
		handleTapingResultDelete(w, r)
	case path == "select/etc/tapping-check-lot" && r.Method == "GET":
		handleTapingCheckLot(w, r)
	case path == "select/etc/lot_no_inform" && r.Method == "GET":
		handleLotNoInform(w, r)
	case path == "select/etc/test_man_cd" && r.Method == "GET":
		handleTestManCd(w, r)

	// equipment and inspection reports
	case path == "select/equip/mst" && r.Method == "GET":
		handleEquipMst(w, r)
	case path == "select/equip/inspect" && r.Method == "GET":
		handleEquipInspect(w, r)
	case path == "select/report/equipment-list" && r.Method == "GET":
		handleReportEquipmentList(w, r)
	case path == "select/report/questions" && r.Method == "GET":
		handleReportQuestions(w, r)
	case path == "select/report/history-log" && r.Method == "GET":
		handleReportHistoryLog(w, r)
	case path == "insert/report/checklist" && r.Method == "POST":
		handleReportChecklist(w, r)

	// machine data
	case path == "select/smart/smart-log" && r.Method == "GET":
		handleSmartLog(w, r)
	case path == "select/data/smart-prg-cd" && r.Method == "GET":
		handleSmartPrgCd(w, r)
	case path == "select/data/equip-down-time" && r.Method == "GET":
		handleEquipDownTime(w, r)
	case path == "select/data/process-equip" && r.Method == "GET":
		handleProcessEquip(w, r)
	case path == "select/data/jepum-defect-rate" && r.Method == "GET":
		handleJepumDefectRate(w, r)
	case path == "select/data/line-defect-rate" && r.Method == "GET":
		handleLineDefectRate(w, r)
	case path == "select/data/jepum-equip-defect-rate" && r.Method == "GET":
		handleJepumEquipDefectRate(w, r)
	case path == "select/data/descriptive" && r.Method == "GET":
		handleDescriptive(w, r)

	// measurement samples
	case path == "data/measurement" && r.Method == "GET":
		handleMeasurementList(w, r)
	case path == "data/measurement/update" && r.Method == "PUT":
		handleMeasurementUpdate(w, r)
	case path == "data/measurement/delete" && r.Method == "DELETE":
		handleMeasurementDelete(w, r)
	case path == "data/measurement/duplicate" && r.Method == "POST":
		handleMeasurementDuplicate(w, r)

	// statistics
	case path == "analysis/xy-options" && r.Method == "GET":
		handleAnalysisXYOptions(w, r)
	case path == "analysis/collect-data" && r.Method == "GET":
		handleAnalysisCollectData(w, r)
	case path == "analysis/dynamic-analysis" && r.Method == "GET":
		handleDynamicAnalysis(w, r)
	case path == "analysis/dynamic-analysis-2nd" && r.Method == "GET":
		handleDynamicAnalysis2nd(w, r)
	case path == "analysis/history" && r.Method == "GET":
		handleAnalysisHistory(w, r)
	case path == "analysis/result-report" && r.Method == "GET":
		handleAnalysisResultReport(w, r)

	// files
	case path == "insert/file/upload" && r.Method == "POST":
		handleFileUpload(w, r)

	default:
		jsonErr(w, "not found", 404)
	}
}
