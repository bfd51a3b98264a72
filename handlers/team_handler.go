package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/services"
)

const maxLogoBytes = 5 << 20

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// teamFilterFromQuery reads q, sport and category. Unknown enum values are rejected.
func teamFilterFromQuery(r *http.Request) (models.TeamFilter, error) {
	q := r.URL.Query()
	filter := models.TeamFilter{Query: q.Get("q")}
	if raw := q.Get("sport"); raw != "" {
		sport, err := models.ParseSport(raw)
		if err != nil {
			return filter, err
		}
		filter.Sport = sport
	}
	if raw := q.Get("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return filter, err
		}
		filter.Category = category
	}
	return filter, nil
}

// CreateTeam godoc
// @Summary Create a team
// @Tags teams
// @Accept json
// @Produce json
// @Param body body services.CreateTeamInput true "Team"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Team already exists for this sport and category"
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), middleware.SessionFromContext(r.Context()), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"team": team})
}

// ListMyTeams godoc
// @Summary Teams owned by the caller
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /me/teams [get]
func (h *TeamHandler) ListMyTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListMyTeams(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

// SearchTeams godoc
// @Summary Search teams by name or city
// @Tags teams
// @Produce json
// @Param q query string false "Name or city fragment"
// @Param sport query string false "Sport"
// @Param category query string false "Category"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams [get]
func (h *TeamHandler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	filter, err := teamFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teams, err := h.teamService.SearchTeams(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

// GetTeam godoc
// @Summary Team with its players
// @Tags teams
// @Produce json
// @Param teamID path string true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /teams/{teamID} [get]
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"team": team})
}

// AddPlayer godoc
// @Summary Add a player
// @Tags teams
// @Accept json
// @Produce json
// @Param teamID path string true "Team ID"
// @Param body body services.AddPlayerInput true "Player"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /teams/{teamID}/players [post]
func (h *TeamHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.AddPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.teamService.AddPlayer(r.Context(), middleware.SessionFromContext(r.Context()), teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"player": player})
}

// RemovePlayer godoc
// @Summary Remove a player
// @Tags teams
// @Param teamID path string true "Team ID"
// @Param playerID path string true "Player ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /teams/{teamID}/players/{playerID} [delete]
func (h *TeamHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.RemovePlayer(r.Context(), middleware.SessionFromContext(r.Context()), teamID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadLogo godoc
// @Summary Upload or replace the team crest
// @Tags teams
// @Accept multipart/form-data
// @Produce json
// @Param teamID path string true "Team ID"
// @Param logo formData file true "PNG, JPEG or WebP image"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 503 {object} map[string]string "Logo storage not configured"
// @Security BearerAuth
// @Router /teams/{teamID}/logo [put]
func (h *TeamHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+1024)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	file, _, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("missing logo file"))
		return
	}
	defer file.Close()

	// The declared part type is not trusted; sniff the first bytes instead.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		badRequestResponse(w, r, errors.New("logo file is empty"))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	team, err := h.teamService.UploadLogo(r.Context(), middleware.SessionFromContext(r.Context()), teamID, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"team": team})
}
