package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-probe/backend/internal/handler/chat"
	"github.com/zhouzirui/persona-probe/backend/internal/handler/events"
	"github.com/zhouzirui/persona-probe/backend/internal/handler/persona"
	middlewarePkg "github.com/zhouzirui/persona-probe/backend/internal/middleware"
	personaModel "github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	"github.com/zhouzirui/persona-probe/backend/internal/observability"
	chatService "github.com/zhouzirui/persona-probe/backend/internal/service/chat"
	"github.com/zhouzirui/persona-probe/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(catalog personaModel.Catalog, registry *chatService.Registry, broadcaster *chatService.Broadcaster, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// 未匹配的路径与方法统一返回 JSON 404
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	personaHandler := persona.New(catalog)
	chatHandler := chat.New(registry)
	eventsHandler := events.New(registry, broadcaster)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		eventsHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"ai_enabled": registry.GeneratorAvailable(),
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusNotFound, "Not found")
}
