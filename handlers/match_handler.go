package handlers

import (
	"net/http"

	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListMine godoc
// @Summary Matches of the caller's teams, by date
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches [get]
func (h *MatchHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListMine(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// RecordScore godoc
// @Summary Record the final score of a scheduled match
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param body body services.ScoreInput true "Scores of team A and team B"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Caller does not own a playing team"
// @Failure 409 {object} map[string]string "Match already finished"
// @Failure 422 {object} map[string]string "Scores must be non-negative integers"
// @Security BearerAuth
// @Router /matches/{matchID}/score [put]
func (h *MatchHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordScore(r.Context(), middleware.SessionFromContext(r.Context()), id, string(input.ScoreA), string(input.ScoreB))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}
