package eod

// tradeLine is one executed order as written by the tradelog package.
type tradeLine struct {
	Time    string
	Symbol  string
	Side    string
	Qty     float64
	Price   float64
	OrderID string
	Reason  string
	Tag     string
}

// aggRow accumulates one symbol's fills for the day.
type aggRow struct {
	Symbol    string
	Trades    int
	BuyQty    float64
	BuyValue  float64
	SellQty   float64
	SellValue float64
}

// summaryRow is one CSV line of the report.
type summaryRow struct {
	Symbol         string `csv:"symbol"`
	Trades         string `csv:"trades"`
	BuyQty         string `csv:"buy_qty"`
	BuyAvg         string `csv:"buy_avg"`
	SellQty        string `csv:"sell_qty"`
	SellAvg        string `csv:"sell_avg"`
	RealizedPnL    string `csv:"realized_pnl"`
	GrossBuyValue  string `csv:"gross_buy_value"`
	GrossSellValue string `csv:"gross_sell_value"`
}
