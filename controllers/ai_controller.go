package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/ai"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// AIController exposes the writing and coding assistants. The coding
// assistants (code review, code generation, chat) require a paid tier;
// the writing helpers stay free.
type AIController struct {
	db  *gorm.DB
	svc *ai.Service
}

// NewAIController creates a new AIController instance. svc may be nil when
// no API key is configured; endpoints then answer 503.
func NewAIController(db *gorm.DB, svc *ai.Service) *AIController {
	return &AIController{db: db, svc: svc}
}

func (a *AIController) available(ctx *gin.Context) bool {
	if a.svc == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "ai features are not configured")
		return false
	}
	return true
}

// requirePaidTier rejects free-tier callers for the premium assistants.
func (a *AIController) requirePaidTier(ctx *gin.Context) bool {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return false
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50312, "failed to load user")
		return false
	}
	if user.SubscriptionTier == models.TierFree || user.SubscriptionStatus != models.SubscriptionActive {
		utils.Error(ctx, http.StatusPaymentRequired, 40210, "subscription required for this feature")
		return false
	}
	return true
}

type textRequest struct {
	Content string `json:"content" binding:"required"`
}

// Suggest continues a partially written entry.
func (a *AIController) Suggest(ctx *gin.Context) {
	if !a.available(ctx) {
		return
	}
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.Suggest(ctx.Request.Context(), req.Content)
	if err != nil {
		utils.Sugar.Warnf("ai suggest failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"suggestion": strings.TrimSpace(out)})
}

// Summarize produces a short summary of an entry.
func (a *AIController) Summarize(ctx *gin.Context) {
	if !a.available(ctx) {
		return
	}
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.Summarize(ctx.Request.Context(), req.Content)
	if err != nil {
		utils.Sugar.Warnf("ai summarize failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"summary": strings.TrimSpace(out)})
}

// ImproveWriting rewrites text for clarity.
func (a *AIController) ImproveWriting(ctx *gin.Context) {
	if !a.available(ctx) {
		return
	}
	var req textRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.ImproveWriting(ctx.Request.Context(), req.Content)
	if err != nil {
		utils.Sugar.Warnf("ai improve failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"improved": strings.TrimSpace(out)})
}

// ReviewCode reviews a code snippet.
func (a *AIController) ReviewCode(ctx *gin.Context) {
	if !a.available(ctx) || !a.requirePaidTier(ctx) {
		return
	}
	var req struct {
		Code     string `json:"code" binding:"required"`
		Language string `json:"language"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.ReviewCode(ctx.Request.Context(), req.Code, req.Language)
	if err != nil {
		utils.Sugar.Warnf("ai code review failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"review": strings.TrimSpace(out)})
}

// GenerateCode produces code for a natural language request.
func (a *AIController) GenerateCode(ctx *gin.Context) {
	if !a.available(ctx) || !a.requirePaidTier(ctx) {
		return
	}
	var req struct {
		Request  string `json:"request" binding:"required"`
		Language string `json:"language"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.GenerateCode(ctx.Request.Context(), req.Request, req.Language)
	if err != nil {
		utils.Sugar.Warnf("ai generate code failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"code": strings.TrimSpace(out)})
}

// MindMapOutline generates an indented outline for a topic; clients feed it
// to the outline parser to build a map.
func (a *AIController) MindMapOutline(ctx *gin.Context) {
	if !a.available(ctx) {
		return
	}
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.MindMapOutline(ctx.Request.Context(), req.Topic)
	if err != nil {
		utils.Sugar.Warnf("ai outline failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"outline": out})
}

// Chat answers the latest turn of a programming conversation. The client
// sends the full role-tagged history and gets the next reply back.
func (a *AIController) Chat(ctx *gin.Context) {
	if !a.available(ctx) || !a.requirePaidTier(ctx) {
		return
	}
	var req struct {
		Messages []ai.ChatMessage `json:"messages" binding:"required,min=1,dive"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid request payload")
		return
	}
	out, err := a.svc.Chat(ctx.Request.Context(), req.Messages)
	if err != nil {
		utils.Sugar.Warnf("ai chat failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"reply": strings.TrimSpace(out)})
}

// JournalPrompt suggests something to write about.
func (a *AIController) JournalPrompt(ctx *gin.Context) {
	if !a.available(ctx) {
		return
	}
	out, err := a.svc.JournalPrompt(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Warnf("ai journal prompt failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50311, "ai request failed")
		return
	}
	utils.Success(ctx, gin.H{"prompt": strings.TrimSpace(out)})
}
