package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/pictures", func(r chi.Router) {
		r.Post("/", handler.AddPicture)
		r.Get("/", handler.ListPictures)
		r.Get("/{pictureId}", handler.GetPicture)
		r.Put("/{pictureId}", handler.UpdatePicture)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", handler.AddUser)
		r.Get("/", handler.ListUsers)
		r.Get("/{userId}", handler.GetUser)
	})

	r.Post("/likes", handler.LikePicture)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Post("/complete", handler.CompleteOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/{memo}", handler.GetOrder)
		r.Get("/{memo}/sightings", handler.ListSightings)
	})

	r.Get("/payments/verify", handler.VerifyPayment)
	r.Get("/address/{identity}", handler.GetAddress)

	return &Server{Router: r}
}
