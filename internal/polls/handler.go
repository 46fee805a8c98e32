package polls

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/internal/middleware"
	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/response"
)

// CreateRequest is the body for POST /votacion.
type CreateRequest struct {
	Title   string   `json:"titulo" binding:"required"`
	Options []string `json:"opciones" binding:"required"`
}

// VoteRequest is the body for POST /votacion/:id/votar.
type VoteRequest struct {
	UserID   string `json:"usuarioId" binding:"required"`
	OptionID string `json:"opcionId" binding:"required"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	svc    *Service
	tokens *TokenStore
	logger *zap.Logger
}

// NewHandler creates a polls handler. tokens may be nil when Redis is not
// configured; the token endpoints then answer 503.
func NewHandler(svc *Service, tokens *TokenStore, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// List handles GET /votacion.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	q := ListQuery{
		Page:   page,
		Limit:  limit,
		State:  models.PollState(c.Query("estado")),
		Search: c.Query("busqueda"),
	}
	if v := c.Query("resultadosPublicados"); v != "" {
		published := v == "true"
		q.ResultsPublished = &published
	}

	list, envelope, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Poll{}
	}
	response.OK(c, gin.H{"data": list, "pagination": envelope})
}

// Create handles POST /votacion (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), req.Title, req.Options)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.Created(c, p)
}

// Vote handles POST /votacion/:id/votar.
func (h *Handler) Vote(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, "solicitud inválida", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Validation(c, "usuarioId inválido")
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		response.Validation(c, "opcionId inválido")
		return
	}

	votedAt, err := h.svc.CastVote(c.Request.Context(), userID, pollID, optionID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{
		"votacionId": pollID,
		"usuarioId":  userID,
		"opcionId":   optionID,
		"fechaVoto":  votedAt,
	})
}

// MyVote handles GET /votacion/:id/mi-voto/:usuarioId.
func (h *Handler) MyVote(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("usuarioId"))
	if err != nil {
		response.Validation(c, "usuarioId inválido")
		return
	}
	voted, votedAt, err := h.svc.MyVote(c.Request.Context(), pollID, userID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"yaVoto": voted, "fechaVoto": votedAt})
}

// Close handles PATCH /votacion/:id/cerrar (admin).
func (h *Handler) Close(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	p, err := h.svc.Close(c.Request.Context(), pollID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// Publish handles PATCH /votacion/:id/publicar (admin).
func (h *Handler) Publish(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	p, err := h.svc.Publish(c.Request.Context(), pollID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// Results handles GET /votacion/:id/resultados. Before publication only
// admins may read the tallies.
func (h *Handler) Results(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	results, err := h.svc.Tally(c.Request.Context(), pollID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	caller := middleware.CurrentUser(c)
	if !results.Poll.ResultsPublished && !caller.Role.IsAdmin {
		response.Error(c, http.StatusForbidden, "los resultados aún no están publicados", "")
		return
	}
	response.OK(c, results)
}

// Participants handles GET /votacion/:id/participantes (admin).
func (h *Handler) Participants(c *gin.Context) {
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	list, envelope, err := h.svc.Participants(c.Request.Context(), pollID, ParticipantQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("busqueda"),
	})
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Participant{}
	}
	response.OK(c, gin.H{"data": list, "pagination": envelope})
}

// IssueToken handles POST /votacion/:id/token (admin). Tokens are only
// issued for active polls.
func (h *Handler) IssueToken(c *gin.Context) {
	if h.tokens == nil {
		response.Error(c, http.StatusServiceUnavailable, "tokens de votación no disponibles", "")
		return
	}
	pollID, ok := h.pollID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), pollID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	if p.State != models.PollActive {
		response.Error(c, http.StatusBadRequest, "la votación está cerrada", "")
		return
	}
	token, err := h.tokens.Issue(c.Request.Context(), pollID)
	if err != nil {
		h.logger.Error("issue voting token", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	response.Created(c, gin.H{"votacionId": pollID, "token": token})
}

// RedeemToken handles GET /tokens/votacion/:token (public). Redeeming a
// token consumes it and returns the poll it grants access to.
func (h *Handler) RedeemToken(c *gin.Context) {
	if h.tokens == nil {
		response.Error(c, http.StatusServiceUnavailable, "tokens de votación no disponibles", "")
		return
	}
	pollID, err := h.tokens.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			response.Error(c, http.StatusNotFound, "token de votación inválido o expirado", "")
			return
		}
		h.logger.Error("redeem voting token", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	p, err := h.svc.Get(c.Request.Context(), pollID)
	if err != nil {
		response.AppError(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) pollID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Validation(c, "id de votación inválido")
		return uuid.Nil, false
	}
	return id, true
}
