package models

import "time"

// MSymbolResult records the outcome of one symbol within a run.
type MSymbolResult struct {
	Symbol  string `json:"symbol"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// MRunReport accumulates per-symbol outcomes for one pipeline execution.
type MRunReport struct {
	Results   []MSymbolResult `json:"results"`
	Successes int             `json:"successes"`
	Total     int             `json:"total"`
}

// SuccessRatio returns successes/total, or 0 for an empty run.
func (r *MRunReport) SuccessRatio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Total)
}

// MPipelineStats summarizes the stored data for the diagnostic report.
type MPipelineStats struct {
	TableExists      bool   `json:"table_exists"`
	TotalRecords     int64  `json:"total_records"`
	UniqueSymbols    int64  `json:"unique_symbols"`
	LatestTradingDay string `json:"latest_trading_day"`
}

// MComponentStatus is one section of the health report.
type MComponentStatus struct {
	Status  string `json:"status"` // "ok", "warning", "error" or "info"
	Message string `json:"message"`
}

// MHealthReport is the read-only diagnostic probe result. Overall health is
// derived from the environment, database and api sections only; stats and
// market are informational.
type MHealthReport struct {
	Timestamp   time.Time        `json:"timestamp"`
	Environment MComponentStatus `json:"environment"`
	Database    MComponentStatus `json:"database"`
	API         MComponentStatus `json:"api"`
	Market      MComponentStatus `json:"market"`
	Stats       MPipelineStats   `json:"pipeline_stats"`
}

// Healthy reports whether any of the gating sections is in error.
func (h *MHealthReport) Healthy() bool {
	for _, s := range []MComponentStatus{h.Environment, h.Database, h.API} {
		if s.Status == "error" {
			return false
		}
	}
	return true
}
