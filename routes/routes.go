package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/boules-league/handlers"
	"github.com/Dosada05/boules-league/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Event        *handlers.EventHandler
	Team         *handlers.TeamHandler
	Registration *handlers.RegistrationHandler
	Match        *handlers.MatchHandler
	Scoreboard   *handlers.ScoreboardHandler
	Admin        *handlers.AdminHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	// WebSocket живёт дольше любого таймаута запроса.
	router.Get("/ws/events/{eventID}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.With(limiter.Limit).Post("/login", h.Auth.Login)
		})

		// Публичные маршруты
		r.Get("/events", h.Event.ListEvents)
		r.Get("/events/upcoming", h.Event.GetUpcomingEvent)
		r.Get("/events/{eventID}/teams", h.Team.ListEventTeams)
		r.Get("/events/{eventID}/standings", h.Team.ListEventStandings)
		r.Get("/scoreboard/{eventID}", h.Scoreboard.GetScoreboard)
		r.Get("/checkin/{code}", h.Registration.VerifyCheckIn)
		r.Post("/checkin/{code}", h.Registration.CheckIn)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/users/me", h.User.GetMe)
			r.Post("/users/me/avatar", h.User.UploadAvatar)
			r.Get("/users/me/stats", h.User.GetMyStats)

			r.Get("/events/{eventID}", h.Event.GetEventDetails)
			r.Get("/events/{eventID}/registrations", h.Registration.ListByEvent)
			r.Post("/events/{eventID}/registrations", h.Registration.Register)
			r.Delete("/events/{eventID}/registrations", h.Registration.Unregister)
			r.Get("/registrations", h.Registration.ListMine)

			r.Get("/matches/{matchID}", h.Scoreboard.GetMatch)
			r.With(limiter.Limit).Post("/matches/{matchID}/results", h.Match.SubmitResult)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/users", h.Admin.ListUsers)
				r.Patch("/users/{userID}/status", h.Admin.UpdateUserStatus)

				r.Post("/events", h.Admin.CreateEvent)
				r.Delete("/events/{eventID}", h.Admin.DeleteEvent)
				r.Patch("/events/{eventID}/status", h.Admin.UpdateEventStatus)
				r.Post("/events/{eventID}/generate-teams", h.Admin.GenerateTeams)

				r.Patch("/matches/{matchID}/status", h.Admin.UpdateMatchStatus)
			})
		})
	})
}
