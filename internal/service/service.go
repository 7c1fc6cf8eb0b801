package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewAnalysisService, NewHistoryService, NewHealthService)

// Operation names reported to middleware.
const (
	OperationAnalyze      = "/hazard.v1.Analyzer/Analyze"
	OperationListAnalyses = "/hazard.v1.History/ListAnalyses"
	OperationGetAnalysis  = "/hazard.v1.History/GetAnalysis"
	OperationHealth       = "/hazard.v1.Health/Check"
)
