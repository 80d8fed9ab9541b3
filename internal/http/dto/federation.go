package dto

import "mira.app/federation/internal/model"

type ReportsResponse struct {
	Count   int               `json:"count"`
	Reports []model.ReportRef `json:"reports"`
}

type CycleRequest struct {
	ResonanceIndex  float64 `json:"resonance_index"`
	MeanConfidence  float64 `json:"mean_confidence"`
	MeanUncertainty float64 `json:"mean_uncertainty"`
}

type CycleResponse struct {
	Status string           `json:"status"`
	Logged model.CycleEvent `json:"logged"`
}

type CyclesResponse struct {
	Events []model.CycleEvent `json:"events"`
}
