package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lewebsimple/autologin/internal/domain"
)

// linkUsecaser is the subset of LinkUsecase the handler needs.
type linkUsecaser interface {
	Issue(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, userID, redirect string) (string, error)
	Send(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error)
}

type LinkHandler struct {
	links  linkUsecaser
	logger *slog.Logger
}

func NewLinkHandler(links linkUsecaser, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger.With("component", "link_handler")}
}

type createLinkRequest struct {
	UserID     string `json:"user_id"     binding:"required"`
	Redirect   string `json:"redirect"`
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,min=60"`
	SendEmail  bool   `json:"send_email"`
}

type lookupLinkRequest struct {
	UserID   string `form:"user_id"  binding:"required"`
	Redirect string `form:"redirect"`
}

type linkResponse struct {
	URL string `json:"url"`
}

func (h *LinkHandler) Create(ctx *gin.Context) {
	var req createLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	status := http.StatusCreated
	issue := h.links.Issue
	if req.SendEmail {
		status = http.StatusAccepted
		issue = h.links.Send
	}

	link, err := issue(ctx.Request.Context(), req.UserID, req.Redirect, ttl)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		case errors.Is(err, domain.ErrInvalidInput):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "issue link", "user_id", req.UserID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	h.logger.InfoContext(ctx.Request.Context(), "link issued",
		"user_id", req.UserID, "emailed", req.SendEmail, "subject", ctx.GetString("subject"))
	ctx.JSON(status, linkResponse{URL: link})
}

func (h *LinkHandler) Lookup(ctx *gin.Context) {
	var req lookupLinkRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.links.Lookup(ctx.Request.Context(), req.UserID, req.Redirect)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errLinkNotFound})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "lookup link", "user_id", req.UserID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, linkResponse{URL: link})
}

// NotFound is the JSON fallback for unmatched routes.
func NotFound(ctx *gin.Context) {
	ctx.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
}
