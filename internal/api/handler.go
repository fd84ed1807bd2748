package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/fraud"
	"github.com/garipamoja/askari/internal/moderation"
	"github.com/garipamoja/askari/internal/pricing"
	"github.com/garipamoja/askari/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	cache      domain.Cache
	bus        domain.EventBus
	engine     *rules.Engine
	fraud      *fraud.Service
	pricing    *pricing.Service
	moderation *moderation.Service
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(
	repo domain.Repository,
	cache domain.Cache,
	eventBus domain.EventBus,
	engine *rules.Engine,
	fraudSvc *fraud.Service,
	pricingSvc *pricing.Service,
	moderationSvc *moderation.Service,
	version string,
) *Handler {
	return &Handler{
		repo:       repo,
		cache:      cache,
		bus:        eventBus,
		engine:     engine,
		fraud:      fraudSvc,
		pricing:    pricingSvc,
		moderation: moderationSvc,
		version:    version,
	}
}

// DetectFraud handles POST /fraud/detect.
func (h *Handler) DetectFraud(w http.ResponseWriter, r *http.Request) {
	var req domain.FraudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "userId is required",
		})
		return
	}

	result := h.fraud.Detect(r.Context(), &req)
	writeJSON(w, http.StatusOK, result)
}

// SuggestPrice handles POST /pricing/suggest.
func (h *Handler) SuggestPrice(w http.ResponseWriter, r *http.Request) {
	var req domain.PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.CarID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "carId is required",
		})
		return
	}
	if req.BasePrice <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "basePrice must be positive",
		})
		return
	}

	result := h.pricing.Suggest(r.Context(), &req)
	writeJSON(w, http.StatusOK, result)
}

// CheckContent handles POST /moderation/check.
func (h *Handler) CheckContent(w http.ResponseWriter, r *http.Request) {
	var req domain.ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "content is required",
		})
		return
	}
	if req.ContentType == "" {
		req.ContentType = "listing"
	}

	result := h.moderation.Check(r.Context(), &req)
	writeJSON(w, http.StatusOK, result)
}

// UpdateModels handles POST /models/update.
func (h *Handler) UpdateModels(w http.ResponseWriter, r *http.Request) {
	var req domain.ModelUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	var (
		trained bool
		err     error
	)
	switch req.Domain {
	case domain.DomainFraud:
		trained, err = h.fraud.UpdateModel(r.Context(), req.Records)
	case domain.DomainPricing:
		trained, err = h.pricing.UpdateModel(r.Context(), req.Records)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "domain must be \"fraud\" or \"pricing\"",
		})
		return
	}

	if err != nil {
		slog.Error("model update failed", "domain", req.Domain, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "model update failed",
		})
		return
	}

	status := "skipped"
	if trained {
		status = "trained"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":  req.Domain,
		"status":  status,
		"records": len(req.Records),
	})
}

// ModelStatus handles GET /models/status.
func (h *Handler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]domain.ModelStatus{
		"fraud":   h.fraud.ModelStatus(),
		"pricing": h.pricing.ModelStatus(),
	})
}

// ProcessBatch handles POST /batch/process. Items are published to the
// analysis-request topic and scored asynchronously by the worker.
func (h *Handler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "items are required",
		})
		return
	}
	if req.BatchID == "" {
		req.BatchID = uuid.New().String()
	}

	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus not available",
		})
		return
	}

	payload, err := json.Marshal(&req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode batch",
		})
		return
	}

	if err := h.bus.Publish(r.Context(), domain.TopicAnalysisRequested, payload); err != nil {
		slog.Error("failed to publish batch", "batch_id", req.BatchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to enqueue batch",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batchId": req.BatchID,
		"items":   len(req.Items),
		"status":  "queued",
	})
}

// AnalyticsSummary handles GET /analytics/summary.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	ctx := r.Context()
	var summary domain.AnalyticsSummary

	for _, d := range []struct {
		name  string
		stats *domain.DomainStats
	}{
		{domain.DomainFraud, &summary.Fraud},
		{domain.DomainPricing, &summary.Pricing},
		{domain.DomainModeration, &summary.Moderation},
	} {
		total, flagged, err := h.repo.CountAnalyses(ctx, d.name)
		if err != nil {
			slog.Error("failed to count analyses", "domain", d.name, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to compute summary",
			})
			return
		}
		d.stats.Total = total
		d.stats.Flagged = flagged
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetAnalysis handles GET /analyses/{id}.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "analysis id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysis, err := h.repo.GetAnalysis(r.Context(), id)
	if err != nil {
		slog.Error("failed to get analysis", "id", id, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// ListRuleTables handles GET /rules.
func (h *Handler) ListRuleTables(w http.ResponseWriter, r *http.Request) {
	tables := h.engine.Tables()
	writeJSON(w, http.StatusOK, map[string]any{
		"tables": tables,
		"count":  len(tables),
	})
}

// GetRuleTable handles GET /rules/{domain}.
func (h *Handler) GetRuleTable(w http.ResponseWriter, r *http.Request) {
	scoringDomain := chi.URLParam(r, "domain")

	table := h.engine.Table(scoringDomain)
	if table == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no rule table for domain " + scoringDomain,
		})
		return
	}

	writeJSON(w, http.StatusOK, table)
}

// PutRuleTable handles PUT /rules/{domain}: validates, persists and
// hot-loads a replacement table.
func (h *Handler) PutRuleTable(w http.ResponseWriter, r *http.Request) {
	scoringDomain := chi.URLParam(r, "domain")

	var table domain.RuleTable
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	table.Domain = scoringDomain

	if err := h.engine.ValidateTable(&table); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid rule table: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRuleTable(r.Context(), &table); err != nil {
			slog.Error("failed to save rule table", "domain", scoringDomain, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule table",
			})
			return
		}
	}

	if err := h.engine.LoadTable(&table); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rule table: " + err.Error(),
		})
		return
	}

	slog.Info("rule table replaced", "domain", scoringDomain, "rules", len(table.Rules))
	writeJSON(w, http.StatusOK, &table)
}

// ReloadRuleTables handles POST /rules/reload: built-in defaults overridden
// by whatever the repository holds.
func (h *Handler) ReloadRuleTables(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	stored, err := h.repo.ListRuleTables(r.Context())
	if err != nil {
		slog.Error("failed to list rule tables", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rule tables",
		})
		return
	}

	merged := rules.MergeTables(rules.BuiltinTables(), stored)
	if err := h.engine.ReloadTables(merged); err != nil {
		slog.Error("failed to reload rule tables", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rule tables: " + err.Error(),
		})
		return
	}

	slog.Info("rule tables reloaded", "count", len(merged), "overrides", len(stored))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rule tables reloaded successfully",
		"count":   len(merged),
	})
}

// PutBehaviorSignals handles PUT /signals/{userID}: the marketplace backend
// syncs behavioral signals through this endpoint.
func (h *Handler) PutBehaviorSignals(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var sig domain.BehaviorSignals
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	sig.UserID = userID

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.SaveBehaviorSignals(r.Context(), &sig); err != nil {
		slog.Error("failed to save behavior signals", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save signals",
		})
		return
	}

	writeJSON(w, http.StatusOK, &sig)
}

// PutMarketSnapshot handles PUT /market/{location}.
func (h *Handler) PutMarketSnapshot(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")

	var snap domain.MarketSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	snap.Location = location

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.SaveMarketSnapshot(r.Context(), &snap); err != nil {
		slog.Error("failed to save market snapshot", "location", location, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save snapshot",
		})
		return
	}

	writeJSON(w, http.StatusOK, &snap)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
