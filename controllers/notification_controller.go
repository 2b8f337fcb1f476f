package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

// notifyUser persists a notification and then pushes it to the recipient's
// room. The database write always happens first; the push is best-effort.
func notifyUser(db *gorm.DB, hub realtime.Broadcaster, n models.Notification) {
	if err := db.Create(&n).Error; err != nil {
		utils.Sugar.Warnf("failed to store notification for user %d: %v", n.UserID, err)
		return
	}
	hub.Broadcast(realtime.UserRoom(n.UserID), realtime.Event{
		Name: "newNotification",
		Data: n,
	})
}

// NotificationController serves the signed-in user's notification feed.
type NotificationController struct {
	db  *gorm.DB
	hub realtime.Broadcaster
}

// NewNotificationController creates a new controller instance.
func NewNotificationController(db *gorm.DB, hub realtime.Broadcaster) *NotificationController {
	return &NotificationController{db: db, hub: hub}
}

// CreateNotification stores a notification addressed to the caller and pushes
// it to their own channel. Clients use it to verify their live stream works.
func (n *NotificationController) CreateNotification(ctx *gin.Context) {
	var req struct {
		Type    string `json:"type"`
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	notifType := strings.TrimSpace(req.Type)
	if notifType == "" {
		notifType = "custom"
	}
	notif := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Message: utils.Sanitize(req.Message),
		ActorID: userID,
	}
	if err := n.db.Create(&notif).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to create notification")
		return
	}
	n.hub.Broadcast(realtime.UserRoom(userID), realtime.Event{
		Name: "newNotification",
		Data: notif,
	})
	utils.Success(ctx, gin.H{"notification": notif})
}

// ListNotifications returns the 20 most recent notifications, newest first.
func (n *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var items []models.Notification
	if err := n.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(20).
		Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list notifications")
		return
	}

	var unread int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		unread = 0
	}

	utils.Success(ctx, gin.H{"items": items, "unread_count": unread})
}

// MarkRead marks one of the caller's notifications as read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	notifID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid notification id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var notif models.Notification
	if err := n.db.First(&notif, notifID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40407, "notification not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load notification")
		return
	}
	if notif.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40304, "not your notification")
		return
	}

	notif.IsRead = true
	if err := n.db.Save(&notif).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to update notification")
		return
	}
	utils.Success(ctx, gin.H{"notification": notif})
}

// MarkAllRead marks every unread notification of the caller as read.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to update notifications")
		return
	}
	utils.Success(ctx, gin.H{"message": "all notifications marked read"})
}
