package routes

import (
	"medibook/admin"
	"medibook/auth"
	"medibook/booking"
	"medibook/globals"
	"medibook/live"
	"medibook/middleware"
	"medibook/pay"
	"medibook/profile"
	"medibook/providers"
	"medibook/ratelim"
	"medibook/receipts"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.RegisterPatient))
	router.POST("/api/auth/login", rl.Limit(auth.LoginPatient))
	router.POST("/api/auth/provider/:kind/login", rl.Limit(auth.LoginProvider))
	router.POST("/api/auth/admin/login", rl.Limit(auth.LoginAdmin))
	router.POST("/api/auth/logout", auth.Logout)
	router.POST("/api/auth/refresh", auth.RefreshToken)
}

func AddProviderRoutes(router *httprouter.Router, h *providers.Handler) {
	router.GET("/api/providers/:kind", h.List)
	router.GET("/api/providers/:kind/:id", h.Get)
	router.GET("/api/providers/:kind/:id/slots", h.Slots)
	router.POST("/api/providers/:kind/:id/availability",
		middleware.RequireRole(h.ToggleAvailability, globals.RoleDoctor, globals.RolePharmacist, globals.RoleAdmin))
	router.PUT("/api/panel/:kind/profile",
		middleware.RequireRole(h.UpdateProfile, globals.RoleDoctor, globals.RolePharmacist))
	router.GET("/api/panel/:kind/dashboard",
		middleware.RequireRole(h.Dashboard, globals.RoleDoctor, globals.RolePharmacist))
}

func AddAppointmentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *booking.Handler) {
	router.POST("/api/appointments", rl.Limit(middleware.RequireRole(h.Book, globals.RolePatient)))
	router.GET("/api/appointments", middleware.Authenticate(h.List))
	router.GET("/api/appointments/:id", middleware.Authenticate(h.Get))
	router.POST("/api/appointments/:id/accept",
		middleware.RequireRole(h.Accept, globals.RoleDoctor, globals.RolePharmacist, globals.RoleAdmin))
	router.POST("/api/appointments/:id/cancel", middleware.Authenticate(h.Cancel))
	router.POST("/api/appointments/:id/complete",
		middleware.RequireRole(h.Complete, globals.RoleDoctor, globals.RolePharmacist, globals.RoleAdmin))
}

func AddPayRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *pay.Handler, rec *receipts.Handler) {
	router.POST("/api/appointments/:id/payment-session",
		rl.Limit(middleware.RequireRole(h.CreateCheckout, globals.RolePatient)))
	router.POST("/api/appointments/:id/payment-confirm",
		middleware.RequireRole(h.VerifyCheckout, globals.RolePatient))
	router.GET("/api/appointments/:id/receipt", middleware.Authenticate(rec.PrintReceipt))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/profile", middleware.RequireRole(profile.GetProfile, globals.RolePatient))
	router.PUT("/api/profile", middleware.RequireRole(profile.UpdateProfile, globals.RolePatient))
}

func AddAdminRoutes(router *httprouter.Router, h *admin.Handler) {
	router.POST("/api/admin/providers/:kind",
		middleware.RequireRole(h.AddProvider, globals.RoleAdmin))
	router.GET("/api/admin/dashboard",
		middleware.RequireRole(h.Dashboard, globals.RoleAdmin))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/providers/:kind/:id/updates", live.UpdatesHandler(hub))
}
