package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	"github.com/zhouzirui/persona-probe/backend/pkg/utils"
)

// Handler 提供 persona 目录与前端配置
type Handler struct {
	catalog persona.Catalog
}

// New 创建persona处理器
func New(catalog persona.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.handleConfig)
	r.Get("/personas", h.handleListPersonas)
}

type configResponse struct {
	Personas          []persona.Persona `json:"personas"`
	FollowUps         []string          `json:"follow_ups"`
	RoleCheckQuestion string            `json:"role_check_question"`
}

// handleConfig 返回 persona 列表、追问模板与角色探测问题
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	followUps := append([]string{}, h.catalog.FollowUps...)
	utils.RespondJSON(w, http.StatusOK, configResponse{
		Personas:          h.personas(),
		FollowUps:         followUps,
		RoleCheckQuestion: h.catalog.RoleCheckQuestion,
	})
}

// handleListPersonas 列出所有persona
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas())
}

func (h *Handler) personas() []persona.Persona {
	if h.catalog.Personas == nil {
		return []persona.Persona{}
	}
	return h.catalog.Personas.List()
}
