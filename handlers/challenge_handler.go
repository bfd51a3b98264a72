package handlers

import (
	"net/http"

	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(cs services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs}
}

// CreateChallenge godoc
// @Summary Challenge another team
// @Tags challenges
// @Description Without from_team_id the acting team is chosen among the caller's
// @Description teams: same sport, same category first. A team of another category
// @Description needs confirm_category_mismatch, otherwise 409 names the candidate.
// @Accept json
// @Produce json
// @Param body body services.CreateChallengeInput true "Challenge"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Opponent not found"
// @Failure 409 {object} map[string]interface{} "Category confirmation required"
// @Failure 422 {object} map[string]string "No eligible team or invalid input"
// @Security BearerAuth
// @Router /challenges [post]
func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var input services.CreateChallengeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	challenge, err := h.challengeService.Create(r.Context(), middleware.SessionFromContext(r.Context()), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"challenge": challenge})
}

// Inbox godoc
// @Summary Challenges received and sent by the caller's teams
// @Tags challenges
// @Produce json
// @Success 200 {object} map[string]interface{} "received and sent challenges"
// @Security BearerAuth
// @Router /challenges/inbox [get]
func (h *ChallengeHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.challengeService.Inbox(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, inbox)
}

// GetChallenge godoc
// @Summary Challenge details
// @Tags challenges
// @Produce json
// @Param challengeID path string true "Challenge ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Caller owns neither team"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /challenges/{challengeID} [get]
func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "challengeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	challenge, err := h.challengeService.Get(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"challenge": challenge})
}

// Accept godoc
// @Summary Accept a pending challenge
// @Tags challenges
// @Description Marks the challenge ACCEPTED and schedules the match atomically.
// @Produce json
// @Param challengeID path string true "Challenge ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Only the receiving team can answer"
// @Failure 409 {object} map[string]string "Challenge no longer pending"
// @Security BearerAuth
// @Router /challenges/{challengeID}/accept [post]
func (h *ChallengeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "challengeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	challenge, match, err := h.challengeService.Accept(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"challenge": challenge, "match": match})
}

// Decline godoc
// @Summary Decline a pending challenge
// @Tags challenges
// @Produce json
// @Param challengeID path string true "Challenge ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Only the receiving team can answer"
// @Failure 409 {object} map[string]string "Challenge no longer pending"
// @Security BearerAuth
// @Router /challenges/{challengeID}/decline [post]
func (h *ChallengeHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "challengeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	challenge, err := h.challengeService.Decline(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"challenge": challenge})
}

// CounterPropose godoc
// @Summary Answer a challenge with another date and place
// @Tags challenges
// @Description Swaps the teams so the original sender has to answer next.
// @Accept json
// @Produce json
// @Param challengeID path string true "Challenge ID"
// @Param body body services.CounterProposalInput true "New date and place"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /challenges/{challengeID}/counter [post]
func (h *ChallengeHandler) CounterPropose(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "challengeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.CounterProposalInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	challenge, err := h.challengeService.CounterPropose(r.Context(), middleware.SessionFromContext(r.Context()), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"challenge": challenge})
}
