package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/boules-league/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrEventNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrRegistrationConflict, http.StatusConflict},
		{services.ErrAlreadyGenerated, http.StatusConflict},
		{fmt.Errorf("%w: need 3 more players", services.ErrInsufficientPlayers), http.StatusBadRequest},
		{services.ErrInvalidScore, http.StatusBadRequest},
		{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotParticipant, http.StatusForbidden},
		{services.ErrRegistrationClosed, http.StatusForbidden},
		{services.ErrManualGenerationDisabled, http.StatusForbidden},
		{services.ErrUploadUnavailable, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection reset")
			}
		})
	}
}

func TestGetIDFromURL(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("eventID", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := getIDFromURL(withParam("42"), "eventID")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := getIDFromURL(withParam(bad), "eventID")
		assert.Error(t, err, bad)
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		ScoreA int `json:"score_a"`
	}
	tests := map[string]string{
		"unknown field": `{"score_c": 1}`,
		"bad type":      `{"score_a": "13"}`,
		"malformed":     `{"score_a": 13`,
		"empty":         ``,
		"two values":    `{"score_a": 1}{"score_a": 2}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			assert.Error(t, readJSON(httptest.NewRecorder(), req, &dst))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"score_a": 13}`))
	require.NoError(t, readJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, 13, dst.ScoreA)
}
