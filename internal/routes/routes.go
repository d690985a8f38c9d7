package routes

import (
	"net/http"

	"github.com/habitmate/habitmate/internal/app"
	"github.com/habitmate/habitmate/internal/handler"
	"github.com/habitmate/habitmate/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.Ping)
	auth := handler.NewAuthHandler(app.AuthService)
	habit := handler.NewHabitHandler(app.HabitService)
	progress := handler.NewProgressHandler(app.ProgressService)
	profile := handler.NewProfileHandler(app.ProfileService, app.ProgressService)
	account := handler.NewAccountHandler(app.AuthService, app.UserService, app.FileService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth(app.Cfg.RateLimitEnabled)

	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Habits
	mux.HandleFunc("GET /api/habits", middleware.RequireAuth(habit.List))
	mux.HandleFunc("GET /api/habits/stream", middleware.RequireAuth(habit.Stream))
	mux.HandleFunc("POST /api/habits", middleware.RequireAuth(habit.Create))
	mux.HandleFunc("PATCH /api/habits/{id}", middleware.RequireAuth(habit.Update))
	mux.HandleFunc("DELETE /api/habits/{id}", middleware.RequireAuth(habit.Delete))
	mux.HandleFunc("POST /api/habits/{id}/toggle", middleware.RequireAuth(habit.Toggle))

	// Progress
	mux.HandleFunc("GET /api/progress", middleware.RequireAuth(progress.Report))
	mux.HandleFunc("GET /api/progress/stream", middleware.RequireAuth(progress.Stream))

	// Profile
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(profile.Show))
	mux.HandleFunc("PATCH /api/profile", middleware.RequireAuth(profile.Update))
	mux.HandleFunc("POST /api/profile/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("DELETE /api/profile/avatar", middleware.RequireAuth(account.DeleteAvatar))

	// Account
	mux.HandleFunc("POST /api/account/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("DELETE /api/account", middleware.RequireAuth(account.DeleteAccount))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserService, app.ProfileService),
	)

	return handler
}
