// Package handler adapts HTTP requests to the application services.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by every handler
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends one page of a list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 with a validation code
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.Set(middleware.ErrorCodeKey, dto.CodeValidation)
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.CodeValidation, message, middleware.GetRequestID(c)))
}

// HandleError maps err to its status. Domain errors keep their code, message
// and details; anything else is logged and answered as INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, info := dto.FromError(err)
	info.RequestID = middleware.GetRequestID(c)
	c.Set(middleware.ErrorCodeKey, info.Code)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, dto.Response{Success: false, Error: info})
}

// bindJSON binds the body and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves req at its zero value
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, req)
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathUUID parses a UUID path parameter and answers 400 when malformed
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter
func (h *BaseHandler) queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return nil, false
	}
	return &id, true
}

// actorOrBadRequest returns the acting user, which some operations record
func (h *BaseHandler) actorOrBadRequest(c *gin.Context) (uuid.UUID, bool) {
	actor := middleware.ActorID(c)
	if actor == uuid.Nil {
		h.BadRequest(c, "An acting user is required (token or "+middleware.UserHeaderKey+" header)")
		return uuid.Nil, false
	}
	return actor, true
}
