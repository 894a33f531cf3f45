package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teplatform/internal/handlers"
	"teplatform/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	prom := middlewares.NewPrometheusMiddleware()
	r.Use(middlewares.CorsMiddleware)
	r.Use(middlewares.RateLimit)
	r.Use(prom.Instrument)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.HelloWorldHandler)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAuthRoutes(r)
	s.registerVerificationRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.authService, s.userService, s.verificationService)
	uh := handlers.NewUserHandler(s.userService)

	r.HandleFunc("/api/auth/register", ah.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/lead-login", ah.LeadLogin).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/auth/forgot-password", ah.ForgotPassword).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/verify-reset-code", ah.VerifyResetCode).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/reset-password", ah.ResetPassword).Methods("POST", "OPTIONS")

	r.Handle("/api/me", middlewares.AuthMiddleware(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/auth/success", ah.AuthSuccess).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/auth/error", ah.AuthError).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/auth/{provider}", ah.ProviderAuth).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/auth/{provider}/callback", ah.ProviderCallback).Methods("GET", "OPTIONS")
}

func (s *Server) registerVerificationRoutes(r *mux.Router) {
	vh := handlers.NewVerificationHandler(s.verificationService)

	r.HandleFunc("/api/verification/send-code", vh.SendCode).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/verification/verify-email", vh.VerifyEmail).Methods("POST", "OPTIONS")
	r.Handle("/api/verification/request-email-change", middlewares.AuthMiddleware(http.HandlerFunc(vh.RequestEmailChange))).Methods("POST", "OPTIONS")
	r.Handle("/api/verification/verify-email-change", middlewares.AuthMiddleware(http.HandlerFunc(vh.VerifyEmailChange))).Methods("POST", "OPTIONS")
}
