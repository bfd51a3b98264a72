package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/matchkid/docs"
	"github.com/Dosada05/matchkid/handlers"
	"github.com/Dosada05/matchkid/middleware"
	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/utils"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Team       *handlers.TeamHandler
	Challenge  *handlers.ChallengeHandler
	Match      *handlers.MatchHandler
	Tournament *handlers.TournamentHandler
	Calendar   *handlers.CalendarHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
}

type Options struct {
	Logger         zerolog.Logger
	Tokens         *utils.TokenManager
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Get("/calendar/wheel", h.Calendar.Wheel)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.Tokens))

		r.Get("/me", h.Auth.Me)
		r.Get("/me/teams", h.Team.ListMyTeams)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.SearchTeams)
			r.Post("/", h.Team.CreateTeam)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", h.Team.GetTeam)
				r.Put("/logo", h.Team.UploadLogo)
				r.Post("/players", h.Team.AddPlayer)
				r.Delete("/players/{playerID}", h.Team.RemovePlayer)
			})
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", h.Challenge.CreateChallenge)
			r.Get("/inbox", h.Challenge.Inbox)
			r.Route("/{challengeID}", func(r chi.Router) {
				r.Get("/", h.Challenge.GetChallenge)
				r.Post("/accept", h.Challenge.Accept)
				r.Post("/decline", h.Challenge.Decline)
				r.Post("/counter", h.Challenge.CounterPropose)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMine)
			r.Put("/{matchID}/score", h.Match.RecordScore)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListTournaments)
			r.Post("/", h.Tournament.CreateTournament)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Tournament.GetTournament)
				r.Post("/registrations", h.Tournament.RegisterTeam)
				r.Post("/close", h.Tournament.CloseTournament)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Get("/dashboard", h.Admin.Dashboard)
			r.Post("/challenges/repair", h.Admin.RepairChallenges)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
