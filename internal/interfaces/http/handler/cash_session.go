package handler

import (
	"github.com/gin-gonic/gin"
	cashierapp "github.com/juliohebert/loja-sub000/internal/application/cashier"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
)

// CashSessionHandler opens and closes the register
type CashSessionHandler struct {
	BaseHandler
	sessions *cashierapp.CashSessionService
}

// NewCashSessionHandler creates a CashSessionHandler
func NewCashSessionHandler(sessions *cashierapp.CashSessionService) *CashSessionHandler {
	return &CashSessionHandler{sessions: sessions}
}

// Open handles POST /cash-sessions. The acting user is recorded as the opener.
func (h *CashSessionHandler) Open(c *gin.Context) {
	actor, ok := h.actorOrBadRequest(c)
	if !ok {
		return
	}
	var req cashierapp.OpenCashSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.Open(c.Request.Context(), middleware.TenantID(c), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Current handles GET /cash-sessions/current
func (h *CashSessionHandler) Current(c *gin.Context) {
	session, err := h.sessions.Current(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Close handles POST /cash-sessions/:id/close
func (h *CashSessionHandler) Close(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorOrBadRequest(c)
	if !ok {
		return
	}
	var req cashierapp.CloseCashSessionRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	session, err := h.sessions.Close(c.Request.Context(), middleware.TenantID(c), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
