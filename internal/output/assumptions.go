package output

// DefaultAssumptions lists the modelling conventions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Annual periods; year 1 is the first operating year and capex is spent at year 0",
	"Single deterministic FX path: LKR depreciates at fx_depr every year",
	"Tariff is LKR-denominated and unescalated; revenue converts at the year's FX rate",
	"Opex splits into a USD share and an LKR share, each escalating in its own currency",
	"Taxable income floors at zero each year; no loss carry-forward",
	"DSCR is undefined in years without debt service and excluded from min/avg",
	"NPV discounts project cash flows at discount_rate; LLCR/PLCR at the loan rate",
}
