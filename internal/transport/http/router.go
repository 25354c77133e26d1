package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/cwrk-planet/room-chat/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler        *Handler
	WS             http.HandlerFunc
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}))

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// WS живёт дольше любого таймаута запроса
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}

	h := d.Handler
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(d.RequestTimeout))

		gr.Route("/api", func(api chi.Router) {
			api.Post("/create-room", h.CreateRoom)
			api.Post("/join-room", h.JoinRoom)
			api.Post("/rename-room", h.RenameRoom)
			api.Post("/leave-room", h.LeaveRoom)
			api.Post("/delete-room", h.DeleteRoom)
			api.Get("/my-rooms", h.ListMyRooms)
			api.Get("/stats", h.Stats)
			api.Post("/avatar", h.UploadAvatar)
		})
		gr.Get("/avatars/{id}", h.ServeAvatar)
	})

	return r
}
