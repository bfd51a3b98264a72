package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/services"
)

// AdminHandler serves the admin dashboard and maintenance endpoints. Routes are
// expected behind middleware.Authorize(models.RoleAdmin).
type AdminHandler struct {
	dashboardService services.DashboardService
	challengeService services.ChallengeService
}

func NewAdminHandler(ds services.DashboardService, cs services.ChallengeService) *AdminHandler {
	return &AdminHandler{dashboardService: ds, challengeService: cs}
}

// Dashboard godoc
// @Summary Platform counters
// @Tags admin
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats)
}

// RepairChallenges godoc
// @Summary Create missing matches of accepted challenges
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/challenges/repair [post]
func (h *AdminHandler) RepairChallenges(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if !session.IsAdmin() {
		mapServiceErrorToHTTP(w, r, services.ErrAdminOnly)
		return
	}

	repaired, err := h.challengeService.RepairAcceptedWithoutMatch(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Int("repaired", repaired).Msg("repair sweep finished with errors")
		serverErrorResponse(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"repaired": repaired})
}
