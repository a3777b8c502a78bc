package handlers

import (
	"net/http"

	"github.com/Dosada05/boules-league/services"
)

type ScoreboardHandler struct {
	bracketService services.BracketService
}

func NewScoreboardHandler(bs services.BracketService) *ScoreboardHandler {
	return &ScoreboardHandler{bracketService: bs}
}

func (h *ScoreboardHandler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scoreboard, err := h.bracketService.GetScoreboard(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	headers := http.Header{"Cache-Control": []string{"no-store"}}
	if err := writeJSON(w, http.StatusOK, scoreboard, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreboardHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.bracketService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
