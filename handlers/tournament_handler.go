package handlers

import (
	"net/http"

	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// ListTournaments godoc
// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Param q query string false "Name or location fragment"
// @Param sport query string false "Sport"
// @Param category query string false "Category"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	teamFilter, err := teamFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter := models.TournamentFilter{
		Query:    teamFilter.Query,
		Sport:    teamFilter.Sport,
		Category: teamFilter.Category,
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// GetTournament godoc
// @Summary Tournament with its registered teams
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// CreateTournament godoc
// @Summary Organise a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Tournament"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), middleware.SessionFromContext(r.Context()), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// RegisterTeam godoc
// @Summary Register one of the caller's teams
// @Tags tournaments
// @Description The body may be empty; the team is then chosen like for challenges.
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param body body services.RegisterTeamInput false "Team choice"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Already registered, full, closed or category confirmation required"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registrations [post]
func (h *TournamentHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterTeamInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	registration, err := h.tournamentService.RegisterTeam(r.Context(), middleware.SessionFromContext(r.Context()), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"registration": registration})
}

// CloseTournament godoc
// @Summary Close registrations
// @Tags tournaments
// @Description Owner or admin only. Closing a closed tournament changes nothing.
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/close [post]
func (h *TournamentHandler) CloseTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.Close(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}
