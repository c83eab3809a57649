package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/internal/refresh"
	"github.com/trialscope/trialscope/pkg/dashboard"
)

// Sections lists the model sections served by GET /api/v1/dashboard/{section}.
var Sections = []string{
	"kpis", "readiness", "regions", "sites", "patients", "saes",
	"insights", "recommendations", "trends", "bottlenecks", "breakdown", "provenance",
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	model, ok := h.model(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *Handler) handleSection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("section")
	if !validSection(name) {
		writeError(w, http.StatusNotFound, "unknown dashboard section: "+name)
		return
	}
	model, ok := h.model(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, section(model, name))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	model, err := h.cache.Refresh(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Provenance)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if m := h.cache.Current(); m != nil {
		status["source"] = m.Provenance.Source
		status["generatedAt"] = m.Provenance.GeneratedAt
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) model(w http.ResponseWriter, r *http.Request) (*dashboard.Model, bool) {
	model, err := h.cache.Get(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return nil, false
	}
	return model, true
}

func (h *Handler) unavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, refresh.ErrSnapshotUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.log.Error("building dashboard failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to build dashboard: "+err.Error())
}

func validSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

func section(m *dashboard.Model, name string) any {
	switch name {
	case "kpis":
		return m.ExecutiveKPIs
	case "readiness":
		return map[string]any{
			"status":   m.ExecutiveKPIs.ReadinessStatus,
			"criteria": m.ReadinessCriteria,
		}
	case "regions":
		return m.Regions
	case "sites":
		return map[string]any{
			"topSites":    m.TopSites,
			"bottomSites": m.BottomSites,
		}
	case "patients":
		return m.Patients
	case "saes":
		return m.SAEs
	case "insights":
		return m.AIInsights
	case "recommendations":
		return m.AgentRecommendations
	case "trends":
		return m.Trends
	case "bottlenecks":
		return m.Bottlenecks
	case "breakdown":
		return m.DQIBreakdown
	default:
		return m.Provenance
	}
}
