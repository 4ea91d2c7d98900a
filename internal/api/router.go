package api

import (
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, sessions *middleware.Session, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.Middleware)

		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandlers.Login)
			r.Post("/register", authHandlers.Register)
			r.Post("/logout", authHandlers.Logout)
			r.Post("/forgot-password", authHandlers.ForgotPassword)
			r.Get("/me", authHandlers.Me)
			r.With(middleware.RequireAuth).Put("/update-profile", authHandlers.UpdateProfile)
		})

		// Catalog
		r.Get("/products", handlers.GetProducts)
		r.Get("/products/{slug}", handlers.GetProduct)
		r.Get("/categories", handlers.GetCategories)
		r.Get("/collections", handlers.GetCollections)

		// Cart
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCart)
			r.Delete("/", handlers.ClearCart)
			r.Get("/count", handlers.GetCartCount)
			r.Post("/validate", handlers.ValidateCart)
			r.Post("/items", handlers.AddToCart)
			r.Patch("/items/{id}", handlers.UpdateCartItem)
			r.Delete("/items/{id}", handlers.RemoveFromCart)
		})

		// Wishlist
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", handlers.GetWishlist)
			r.Post("/{productID}", handlers.AddToWishlist)
			r.Delete("/{productID}", handlers.RemoveFromWishlist)
			r.Post("/{productID}/toggle", handlers.ToggleWishlist)
		})

		// Orders. Guests place and follow orders through their cart token;
		// the order history needs an account.
		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireAuth).Get("/", handlers.GetOrders)
			r.Post("/", handlers.PlaceOrder)
			r.Get("/{id}", handlers.GetOrder)
			r.Post("/{id}/cancel", handlers.CancelOrder)
		})

		r.Put("/preferences/locale", handlers.SetLocale)
	})

	return r
}
