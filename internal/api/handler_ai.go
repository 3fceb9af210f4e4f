package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/ai"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/host"
	"github.com/tsanders-rh/dockctl/internal/metrics"
	"github.com/tsanders-rh/dockctl/internal/usage"
)

// AIHandler handles log analysis, optimization and cost endpoints
type AIHandler struct {
	engine    engine.Engine
	analyzer  ai.Analyzer
	cost      *cost.Analyzer
	collector *usage.Collector
	host      HostInspector
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(deps Dependencies, collector *usage.Collector) *AIHandler {
	return &AIHandler{
		engine:    deps.Engine,
		analyzer:  deps.AI,
		cost:      deps.Cost,
		collector: collector,
		host:      deps.Host,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// LogAnalysisResponse is the data of POST /api/ai/analyze-logs/:id
type LogAnalysisResponse struct {
	Container string          `json:"container"`
	Analysis  *ai.LogAnalysis `json:"analysis"`
	Timestamp time.Time       `json:"timestamp"`
}

// CurrentStats is the usage an optimization was computed from, formatted for display
type CurrentStats struct {
	CPUPercent    string `json:"cpu_percent"`
	MemoryUsage   string `json:"memory_usage"`
	MemoryPercent string `json:"memory_percent"`
}

// OptimizationResponse is the data of GET /api/ai/optimize/:id
type OptimizationResponse struct {
	Container    string                     `json:"container"`
	Optimization *ai.OptimizationSuggestion `json:"optimization"`
	CostAnalysis cost.Optimization          `json:"cost_analysis"`
	CurrentStats CurrentStats               `json:"current_stats"`
}

// InterpretationResponse is the data of POST /api/ai/natural-language
type InterpretationResponse struct {
	Query          string             `json:"query"`
	Interpretation *ai.Interpretation `json:"interpretation"`
	Message        string             `json:"message"`
}

// CostAnalysisResponse is the data of GET /api/ai/cost-analysis
type CostAnalysisResponse struct {
	*cost.Report
	// SkippedContainers counts containers whose stats could not be read
	SkippedContainers int            `json:"skipped_containers"`
	Host              *host.Capacity `json:"host,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

// NaturalLanguageRequest is the body of POST /api/ai/natural-language
type NaturalLanguageRequest struct {
	Query string `json:"query"`
}

// AnalyzeLogs handles POST /api/ai/analyze-logs/:id
func (h *AIHandler) AnalyzeLogs(c echo.Context) error {
	ctx := c.Request().Context()

	logs, err := h.engine.ContainerLogs(ctx, c.Param("id"))
	if err != nil {
		return ErrorEngine(c, err)
	}

	analysis, err := h.analyzer.AnalyzeLogs(ctx, logs.Logs, logs.Name)
	if err != nil {
		return ErrorAI(c, err)
	}

	return SuccessOK(c, &LogAnalysisResponse{
		Container: logs.Name,
		Analysis:  analysis,
		Timestamp: timeNow().UTC(),
	})
}

// Optimize handles GET /api/ai/optimize/:id. The LLM suggestion and the
// heuristic cost estimate are computed from the same usage sample.
func (h *AIHandler) Optimize(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := h.engine.ContainerUsage(ctx, c.Param("id"))
	if err != nil {
		return ErrorEngine(c, err)
	}

	suggestion, err := h.analyzer.SuggestOptimization(ctx, ai.ContainerStats{
		Name:        u.Name,
		CPUPercent:  u.CPUPercent,
		MemoryBytes: u.MemoryBytes,
		MemoryLimit: u.MemoryLimit,
	})
	if err != nil {
		return ErrorAI(c, err)
	}

	sample := u.Sample()
	return SuccessOK(c, &OptimizationResponse{
		Container:    u.Name,
		Optimization: suggestion,
		CostAnalysis: h.cost.Optimize(sample),
		CurrentStats: CurrentStats{
			CPUPercent:    fmt.Sprintf("%.2f", sample.CPUPercent),
			MemoryUsage:   fmt.Sprintf("%.2f MB", sample.MemoryMB()),
			MemoryPercent: fmt.Sprintf("%.2f", sample.MemoryPercent()),
		},
	})
}

// NaturalLanguage handles POST /api/ai/natural-language
func (h *AIHandler) NaturalLanguage(c echo.Context) error {
	var req NaturalLanguageRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}
	if req.Query == "" {
		return ErrorBadRequest(c, "Query is required")
	}

	interp, err := h.analyzer.NaturalLanguageQuery(c.Request().Context(), req.Query)
	if err != nil {
		return ErrorAI(c, err)
	}

	return SuccessOK(c, &InterpretationResponse{
		Query:          req.Query,
		Interpretation: interp,
		Message:        "Use the interpreted action and parameters to execute the command",
	})
}

// CostAnalysis handles GET /api/ai/cost-analysis. Containers whose stats
// cannot be read are left out of the report rather than failing it.
func (h *AIHandler) CostAnalysis(c echo.Context) error {
	ctx := c.Request().Context()

	collection, err := h.collector.Collect(ctx, true)
	if err != nil {
		return ErrorEngine(c, err)
	}

	report := h.cost.Report(collection.Samples())
	h.metrics.RecordCostReport(report)

	resp := &CostAnalysisResponse{
		Report:            report,
		SkippedContainers: len(collection.Failed),
		Timestamp:         timeNow().UTC(),
	}

	capacity, err := h.host.Snapshot(ctx)
	if err != nil {
		h.logger.Debug("cost analysis without host capacity", zap.Error(err))
	} else {
		resp.Host = capacity
	}

	return SuccessOK(c, resp)
}
