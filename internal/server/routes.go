package server

import (
	"github.com/Lutefd/currency-dashboard/internal/handler"
	api_middleware "github.com/Lutefd/currency-dashboard/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) registerRoutes() {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	rateLimiter := api_middleware.NewRateLimiter(s.config.RateLimitRPS, s.log)

	router.Get("/healthz", handler.HandlerReadiness)
	ratesHandler := handler.NewRatesHandler(s.ratesService, s.log)
	router.Route("/rates", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Get("/currencies", ratesHandler.Currencies)
		r.Get("/live", ratesHandler.Live)
		r.Get("/live/top", ratesHandler.TopRates)
		r.Get("/live.csv", ratesHandler.LiveCSV)
		r.Get("/historical", ratesHandler.Historical)
		r.Get("/historical/series", ratesHandler.Series)
		r.Get("/historical.csv", ratesHandler.HistoricalCSV)
		r.Post("/refresh", ratesHandler.Refresh)
	})
	s.router = router
}
