package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/handlers"
	"github.com/Dosada05/boules-league/repositories/memory"
	"github.com/Dosada05/boules-league/services"
	"github.com/Dosada05/boules-league/utils"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret    = "routes-test-secret"
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
	hub *brackets.Hub
}

func newTestServer(t *testing.T, opts Options) *apiClient {
	t.Helper()
	utils.BcryptCost = bcrypt.MinCost

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := memory.NewStore().Set()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	authService := services.NewAuthService(repos.Users, logger)
	userService := services.NewUserService(repos.Users, repos.Teams, repos.Matches, repos.Events, nil, logger)
	teamService := services.NewTeamService(repos.Teams, repos.Users, func(n int) int { return n - 1 }, logger)
	bracketService := services.NewBracketService(nil, repos.Events, repos.Teams, repos.Matches, repos.Standings, repos.Users, logger)
	standingService := services.NewStandingService(repos.Standings, repos.Users, logger)
	generationService := services.NewGenerationService(repos.Tx, repos.Events, repos.Registrations, teamService, bracketService,
		services.GenerationPolicy{AutoEnabled: true, ManualEnabled: true}, hub, logger)
	registrationService := services.NewRegistrationService(repos.Tx, repos.Registrations, repos.Events, repos.Users, generationService, logger)
	resultService := services.NewResultService(repos.Tx, repos.Matches, repos.Teams, repos.Confirmations, standingService, hub, logger)
	eventService := services.NewEventService(repos.Tx, repos.Events, repos.Teams, repos.Matches, repos.Users, 16, logger)

	require.NoError(t, authService.EnsureAdmin(ctx, adminEmail, adminPassword))

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:         handlers.NewAuthHandler(authService, testSecret),
		User:         handlers.NewUserHandler(userService),
		Event:        handlers.NewEventHandler(eventService),
		Team:         handlers.NewTeamHandler(teamService, standingService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Match:        handlers.NewMatchHandler(resultService),
		Scoreboard:   handlers.NewScoreboardHandler(bracketService),
		Admin:        handlers.NewAdminHandler(userService, eventService, generationService, resultService),
		WebSocket:    handlers.NewWebSocketHandler(hub, []string{"*"}, logger),
	}, opts)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv, hub: hub}
}

func defaultOptions() Options {
	return Options{JWTSecret: testSecret, AllowedOrigins: []string{"*"}, RateLimitRPS: 1000, RateLimitBurst: 1000}
}

func (c *apiClient) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (c *apiClient) login(email, password string) (string, int) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, status, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), int(user["id"].(float64))
}

func (c *apiClient) signUp(i int) (string, int) {
	c.t.Helper()
	email := fmt.Sprintf("player%d@example.com", i)
	status, body := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": fmt.Sprintf("Player%d", i),
		"last_name":  "Test",
		"email":      email,
		"password":   "pointer-13",
	})
	require.Equal(c.t, http.StatusCreated, status, body)
	return c.login(email, "pointer-13")
}

func TestRoutes_LeagueNight(t *testing.T) {
	api := newTestServer(t, defaultOptions())
	adminToken, _ := api.login(adminEmail, adminPassword)

	status, body := api.do(http.MethodPost, "/api/admin/events", adminToken, map[string]interface{}{
		"event_date":  time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		"event_type":  "league",
		"location":    "Parc Borély",
		"start_time":  "18:00",
		"min_players": 4,
	})
	require.Equal(t, http.StatusCreated, status, body)
	eventID := int(body["event"].(map[string]interface{})["id"].(float64))

	ws, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(api.srv.URL, "http")+fmt.Sprintf("/ws/events/%d", eventID), nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool {
		return api.hub.RoomSize(brackets.EventRoom(eventID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	tokens := make([]string, 4)
	for i := range tokens {
		var userID int
		tokens[i], userID = api.signUp(i + 1)

		status, _ = api.do(http.MethodPost, fmt.Sprintf("/api/events/%d/registrations", eventID), tokens[i], nil)
		assert.Equal(t, http.StatusForbidden, status, "pending accounts cannot register")

		status, _ = api.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", userID), adminToken, map[string]string{"status": "approved"})
		require.Equal(t, http.StatusOK, status)
	}

	for i, token := range tokens {
		var body interface{}
		if i == 0 {
			body = map[string]string{"phone_number": "+33 6 00 00 00 00"}
		}
		status, resp := api.do(http.MethodPost, fmt.Sprintf("/api/events/%d/registrations", eventID), token, body)
		require.Equal(t, http.StatusCreated, status, resp)
	}

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg brackets.WebSocketMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, brackets.MessageBracketGenerated, msg.Type)

	status, board := api.do(http.MethodGet, fmt.Sprintf("/api/scoreboard/%d", eventID), "", nil)
	require.Equal(t, http.StatusOK, status)
	matches := board["matches"].([]interface{})
	require.Len(t, matches, 1)
	matchID := int(matches[0].(map[string]interface{})["id"].(float64))

	status, details := api.do(http.MethodGet, fmt.Sprintf("/api/events/%d", eventID), tokens[0], nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, details["user_team_id"])

	status, mine := api.do(http.MethodGet, "/api/registrations", tokens[0], nil)
	require.Equal(t, http.StatusOK, status)
	myRegs := mine["registrations"].([]interface{})
	require.Len(t, myRegs, 1)
	myEvent := myRegs[0].(map[string]interface{})["event"].(map[string]interface{})
	assert.EqualValues(t, eventID, myEvent["id"])
	assert.Equal(t, "Parc Borély", myEvent["location"])

	regsPath := fmt.Sprintf("/api/events/%d/registrations", eventID)
	status, listed := api.do(http.MethodGet, regsPath, tokens[1], nil)
	require.Equal(t, http.StatusOK, status)
	playerView := listed["registrations"].([]interface{})
	require.Len(t, playerView, 4)
	for _, item := range playerView {
		reg := item.(map[string]interface{})
		assert.NotContains(t, reg, "phone_number")
		assert.NotContains(t, reg, "check_in_code")
		assert.NotContains(t, reg["user"].(map[string]interface{}), "email")
	}
	status, listed = api.do(http.MethodGet, regsPath, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	adminView := listed["registrations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "+33 6 00 00 00 00", adminView["phone_number"])
	assert.NotEmpty(t, adminView["check_in_code"])
	status, _ = api.do(http.MethodGet, regsPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, matchBody := api.do(http.MethodGet, fmt.Sprintf("/api/matches/%d", matchID), tokens[2], nil)
	require.Equal(t, http.StatusOK, status)
	match := matchBody["match"].(map[string]interface{})
	assert.Len(t, match["team_a"].(map[string]interface{})["members"], 2)
	assert.Len(t, match["team_b"].(map[string]interface{})["members"], 2)
	status, _ = api.do(http.MethodGet, "/api/matches/9999", tokens[2], nil)
	assert.Equal(t, http.StatusNotFound, status)

	path := fmt.Sprintf("/api/matches/%d/results", matchID)
	for _, token := range tokens[:3] {
		status, resp := api.do(http.MethodPost, path, token, map[string]int{"score_a": 13, "score_b": 11})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "pending", resp["status"])
	}
	status, resp := api.do(http.MethodPost, path, tokens[3], map[string]int{"score_a": 13, "score_b": 11})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "locked", resp["status"])

	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, brackets.MessageMatchLocked, msg.Type)

	status, standings := api.do(http.MethodGet, fmt.Sprintf("/api/events/%d/standings", eventID), "", nil)
	require.Equal(t, http.StatusOK, status)
	rows := standings["standings"].([]interface{})
	require.Len(t, rows, 4)
	assert.EqualValues(t, 1, rows[0].(map[string]interface{})["wins"])

	status, stats := api.do(http.MethodGet, "/api/users/me/stats", tokens[0], nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, stats["stats"].(map[string]interface{})["matches_won"])

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/api/admin/events/%d/generate-teams", eventID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRoutes_AccessControl(t *testing.T) {
	api := newTestServer(t, defaultOptions())
	playerToken, _ := api.signUp(1)

	status, _ := api.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, me := api.do(http.MethodGet, "/api/users/me", playerToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", me["user"].(map[string]interface{})["status"])

	status, _ = api.do(http.MethodGet, "/api/admin/users", playerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "player1@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "Again", "email": "player1@example.com", "password": "pointer-13",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodGet, "/api/events/upcoming", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodGet, "/api/checkin/not-a-code", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRoutes_LoginIsRateLimited(t *testing.T) {
	opts := defaultOptions()
	opts.RateLimitRPS, opts.RateLimitBurst = 0.01, 2
	api := newTestServer(t, opts)

	credentials := map[string]string{"email": adminEmail, "password": "wrong-password"}
	for range 2 {
		status, _ := api.do(http.MethodPost, "/api/auth/login", "", credentials)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, _ := api.do(http.MethodPost, "/api/auth/login", "", credentials)
	assert.Equal(t, http.StatusTooManyRequests, status)
}
