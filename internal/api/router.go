package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avankov/pixvault/internal/services"
)

// NewRouter creates and configures the chi router. Gallery reads are
// public; every write and every user-directory route requires a bearer
// token.
func NewRouter(users services.UserServiceProvider, images services.ImageServiceProvider, signer UploadSigner, secretKey []byte) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	userHandler := NewUserHandler(users)
	imageHandler := NewImageHandler(images, users)
	uploadHandler := NewUploadHandler(signer)

	r.Route("/api/v1", func(r chi.Router) {
		// public gallery reads
		r.Get("/images", imageHandler.ListAll)
		r.Get("/images/{id}", imageHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(secretKey))

			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Create)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/{externalID}", userHandler.Update)
				r.Delete("/{externalID}", userHandler.Delete)
				r.Post("/{id}/credits", userHandler.AdjustCredits)
				r.Get("/{id}/images", imageHandler.ListByUser)
			})

			r.Post("/images", imageHandler.Create)
			r.Patch("/images/{id}", imageHandler.Update)
			r.Delete("/images/{id}", imageHandler.Delete)

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/", uploadHandler.CreateSlot)
				r.Get("/", uploadHandler.Delivery)
			})
		})
	})

	return r
}
