package dto

import "github.com/shopspring/decimal"

// KPIResponse summarizes one contrato for the dashboard. TotalBase sums the
// original (never-NOC'd) partidas; TotalVigente sums the live versions.
type KPIResponse struct {
	ContratoID   string          `json:"contrato_id"`
	TotalBase    decimal.Decimal `json:"total_base"`
	TotalVigente decimal.Decimal `json:"total_vigente"`
	NocCount     int64           `json:"noc_count"`
}
