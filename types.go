package main

// Row types for the tenant ERP tables. Column aliases in the queries
// match the db tags; json tags keep the wire names the mobile clients
// already consume.

type Vender struct {
	VenderCd string `db:"vender_cd" json:"vender_cd"`
	VenderNm string `db:"vender_nm" json:"vender_nm"`
	City     string `db:"city" json:"city"`
	Address1 string `db:"address1" json:"address1"`
	Tel      string `db:"tel" json:"tel"`
}

type Jepum struct {
	JepumCd string `db:"jepum_cd" json:"jepum_cd"`
	JepumNm string `db:"jepum_nm" json:"jepum_nm"`
}

type StockJepum struct {
	JepumCd string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm string  `db:"jepum_nm" json:"jepum_nm"`
	Spec    string  `db:"spec" json:"spec"`
	Amt     float64 `db:"amt" json:"amt"`
}

type StockOut struct {
	InoutNo     string  `db:"inout_no" json:"inout_no"`
	InoutDt     string  `db:"inout_dt" json:"inout_dt"`
	JepumCd     string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm     string  `db:"jepum_nm" json:"jepum_nm"`
	ConfirmAmt  float64 `db:"confirm_amt" json:"confirm_amt"`
	VenderCd    string  `db:"vender_cd" json:"vender_cd"`
	VenderNm    string  `db:"vender_nm" json:"vender_nm"`
	StockCdFrom string  `db:"stock_cd_from" json:"stock_cd_from"`
	StockCdTo   string  `db:"stock_cd_to" json:"stock_cd_to"`
}

type StockSummary struct {
	JepumCd  string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm  string  `db:"jepum_nm" json:"jepum_nm"`
	StockTot float64 `db:"stock_tot" json:"stock_tot"`
}

type Order struct {
	SujuCd    string  `db:"suju_cd" json:"suju_cd"`
	SujuDt    string  `db:"suju_dt" json:"suju_dt"`
	OutDtTo   string  `db:"out_dt_to" json:"out_dt_to"`
	JepumCd   string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm   string  `db:"jepum_nm" json:"jepum_nm"`
	VenderCd  string  `db:"vender_cd" json:"vender_cd"`
	VenderNm  string  `db:"vender_nm" json:"vender_nm"`
	Amt       float64 `db:"amt" json:"amt"`
	Bigo      string  `db:"bigo" json:"bigo"`
	ProcessCd string  `db:"process_cd" json:"process_cd"`
}

type OrderReq struct {
	SujuCd    string  `json:"suju_cd"`
	SujuDt    string  `json:"suju_dt"`
	OutDtTo   string  `json:"out_dt_to"`
	JepumCd   string  `json:"jepum_cd"`
	VenderCd  string  `json:"vender_cd"`
	Amt       float64 `json:"amt"`
	Bigo      string  `json:"bigo"`
	SujuSeq   string  `json:"suju_seq"`
	SujuGbn   string  `json:"suju_gbn"`
	ProcessCd string  `json:"process_cd"`
}

type StockOutReq struct {
	InoutNo     string  `json:"inout_no"`
	InoutSeq    string  `json:"inout_seq"`
	InoutGbn    string  `json:"inout_gbn"`
	InoutDt     string  `json:"inout_dt"`
	JepumCd     string  `json:"jepum_cd"`
	ConfirmAmt  float64 `json:"confirm_amt"`
	ProcessFg   string  `json:"process_fg"`
	RcvNm       string  `json:"rcv_nm"`
	StockCdFrom string  `json:"stock_cd_from"`
	StockCdTo   string  `json:"stock_cd_to"`
	WriteNm     string  `json:"write_nm"`
	Tm1         string  `json:"tm_1"`
	VenderCd    string  `json:"vender_cd"`
	Bigo        string  `json:"bigo"`
}

type SegsanRow struct {
	SegsanCd string  `db:"segsan_cd" json:"segsan_cd"`
	SegsanDt string  `db:"segsan_dt" json:"segsan_dt"`
	JepumCd  string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm  string  `db:"jepum_nm" json:"jepum_nm"`
	Amt      float64 `db:"amt" json:"amt"`
}

type SegsanReq struct {
	SegsanCd string  `json:"segsan_cd"`
	SegsanDt string  `json:"segsan_dt"`
	JepumCd  string  `json:"jepum_cd"`
	Amt      float64 `json:"amt"`
}

type ProcessResult struct {
	JepumCd  string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm  string  `db:"jepum_nm" json:"jepum_nm"`
	Amt      float64 `db:"amt" json:"amt"`
	SegsanDt string  `db:"segsan_dt" json:"segsan_dt"`
	LotNo    string  `db:"lot_no" json:"lot_no"`
}

type ChulhaRow struct {
	ChulhaCd string  `db:"chulha_cd" json:"chulha_cd"`
	ChulhaDt string  `db:"chulha_dt" json:"chulha_dt"`
	JepumCd  string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm  string  `db:"jepum_nm" json:"jepum_nm"`
	VenderCd string  `db:"vender_cd" json:"vender_cd"`
	VenderNm string  `db:"vender_nm" json:"vender_nm"`
	Amt      float64 `db:"amt" json:"amt"`
	Bigo     string  `db:"bigo" json:"bigo"`
}

type ChulhaReq struct {
	ChulhaCd string  `json:"chulha_cd"`
	ChulhaDt string  `json:"chulha_dt"`
	JepumCd  string  `json:"jepum_cd"`
	VenderCd string  `json:"vender_cd"`
	Amt      float64 `json:"amt"`
	Bigo     string  `json:"bigo"`
}

type TestResult struct {
	LotNo   string  `db:"lot_no" json:"lot_no"`
	JepumCd string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm string  `db:"jepum_nm" json:"jepum_nm"`
	Amt     float64 `db:"amt" json:"amt"`
	ManCd   string  `db:"man_cd" json:"man_cd"`
	Bigo1   string  `db:"bigo_1" json:"bigo_1"`
	WorkDt  string  `db:"work_dt" json:"work_dt"`
	LotNo2  string  `db:"lot_no2" json:"lot_no2"`
	DevNo   string  `db:"dev_no" json:"dev_no"`
}

type TestResultReq struct {
	LotNo   string  `json:"lot_no"`
	JepumCd string  `json:"jepum_cd"`
	Amt     float64 `json:"amt"`
	ManCd   string  `json:"man_cd"`
	BinNo   string  `json:"bin_no"`
	WorkDt  string  `json:"work_dt"`
	LotNo2  string  `json:"lot_no2"`
	DevNo   string  `json:"dev_no"`
}

type TapingRow struct {
	WorkDt  string  `db:"work_dt" json:"work_dt"`
	LotNo   string  `db:"lot_no" json:"lot_no"`
	LotSeq  int     `db:"lot_seq" json:"lot_seq"`
	JepumCd string  `db:"jepum_cd" json:"jepum_cd"`
	JepumNm string  `db:"jepum_nm" json:"jepum_nm"`
	Amt     float64 `db:"amt" json:"amt"`
	ManCd   string  `db:"man_cd" json:"man_cd"`
	Bigo1   string  `db:"bigo_1" json:"bigo_1"`
	BigoA1  float64 `db:"bigo_a1" json:"bigo_a1"`
}

type TapingReq struct {
	LotNo      string  `json:"lot_no"`
	Amt        float64 `json:"amt"`
	ReelCount  int     `json:"reel_count"`
	ReelMinAmt float64 `json:"reel_min_amt"`
	ManCd      string  `json:"man_cd"`
	BinNo      string  `json:"bin_no"`
	JepumCd    string  `json:"jepum_cd"`
}

type LotInform struct {
	JepumCd string `db:"jepum_cd" json:"jepum_cd"`
	JepumNm string `db:"jepum_nm" json:"jepum_nm"`
	Bigo39  string `db:"bigo39" json:"bigo39"`
	Bigo40  string `db:"bigo40" json:"bigo40"`
}

type Worker struct {
	EmpNmk string `db:"emp_nmk" json:"emp_nmk"`
}

type Equip struct {
	EquipCd string `db:"equip_cd" json:"equip_cd"`
	EquipNm string `db:"equip_nm" json:"equip_nm"`
}

type EquipInspect struct {
	EquipCd string `db:"equip_cd" json:"equip_cd"`
	EquipNm string `db:"equip_nm" json:"equip_nm"`
	EquipDt string `db:"equip_dt" json:"equip_dt"`
	DiffDt  string `db:"-" json:"diff_dt"`
}

type EquipmentItem struct {
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Category string `db:"category" json:"category"`
}

type InspectionRow struct {
	Code          string `db:"code" json:"code"`
	Question      string `db:"question" json:"question"`
	Answer        string `db:"answer" json:"answer"`
	PhotoFilename string `db:"photo_filename" json:"photo_filename"`
}

type ChecklistItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ChecklistReq struct {
	Code          string          `json:"code"`
	Checklist     []ChecklistItem `json:"checklist"`
	PhotoFilename string          `json:"photo_filename"`
}

type SmartLog struct {
	YmdHhmm string  `db:"ymdhhmm" json:"ymdhhmm"`
	AutoID  string  `db:"auto_id" json:"auto_id"`
	Col1    float64 `db:"col_1" json:"col_1"`
	Col2    float64 `db:"col_2" json:"col_2"`
	Col3    float64 `db:"col_3" json:"col_3"`
	Col4    float64 `db:"col_4" json:"col_4"`
	Bigo    string  `db:"bigo" json:"bigo"`
}

type PrgCode struct {
	PrgCd string `db:"prg_cd" json:"prg_cd"`
	PrgNm string `db:"prg_nm" json:"prg_nm"`
}

type DeviceUptime struct {
	Device           string  `db:"device" json:"device"`
	OperationTime    float64 `db:"green" json:"operation_time"`
	NonOperationTime float64 `db:"red" json:"non_operation_time"`
}

type DefectRate struct {
	JepumCd string `db:"jepum_cd" json:"jepum_cd"`
	OK      int64  `db:"amt_ok" json:"ok"`
	Err     int64  `db:"amt_err" json:"err"`
}

type LineDefectRate struct {
	Line int64 `db:"line" json:"line"`
	OK   int64 `db:"amt_ok" json:"ok"`
	Err  int64 `db:"amt_err" json:"err"`
}

type DailyProduction struct {
	Ymd string `db:"ymd" json:"ymd"`
	OK  int64  `db:"ok" json:"ok"`
	Err int64  `db:"err" json:"err"`
}

type SeriesPoint struct {
	Ymd  string  `db:"ymd" json:"ymd"`
	Col1 string  `db:"col_1" json:"col_1"`
	Amt  float64 `db:"amt" json:"amt"`
}

type AnalysisSummary struct {
	XVariable      string  `json:"x_variable"`
	YVariable      string  `json:"y_variable"`
	Correlation    float64 `json:"correlation"`
	RSquared       float64 `json:"r_squared"`
	Equation       string  `json:"equation"`
	Interpretation string  `json:"interpretation"`
}

type AnalysisHistoryRow struct {
	ID          int64   `db:"id" json:"id"`
	AnalysisDt  string  `db:"analysis_dt" json:"analysis_dt"`
	AnalystNm   string  `db:"analyst_nm" json:"analyst_nm"`
	XVariable   string  `db:"x_variable" json:"x_variable"`
	YVariable   string  `db:"y_variable" json:"y_variable"`
	Correlation float64 `db:"correlation" json:"correlation"`
	RSquared    float64 `db:"r_squared" json:"r_squared"`
}
