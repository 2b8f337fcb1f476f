package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

// FollowController manages the follow graph.
type FollowController struct {
	db  *gorm.DB
	hub realtime.Broadcaster
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB, hub realtime.Broadcaster) *FollowController {
	return &FollowController{db: db, hub: hub}
}

// FollowUser makes the caller follow the target user and notifies them.
func (f *FollowController) FollowUser(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if targetID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40061, "cannot follow yourself")
		return
	}

	var target models.User
	if err := f.db.First(&target, targetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to load user")
		return
	}

	var existing models.Follow
	if err := f.db.Where("follower_id = ? AND following_id = ?", userID, targetID).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40911, "already following")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to check follow")
		return
	}

	follow := models.Follow{FollowerID: userID, FollowingID: targetID}
	if err := f.db.Create(&follow).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50092, "failed to create follow")
		return
	}

	var actor models.User
	if err := f.db.First(&actor, userID).Error; err == nil {
		notifyUser(f.db, f.hub, models.Notification{
			UserID:   targetID,
			Type:     models.NotificationFollow,
			Message:  fmt.Sprintf("%s started following you", actor.Username),
			ActorID:  userID,
			TargetID: userID,
		})
	}

	utils.Success(ctx, gin.H{"follow": follow})
}

// UnfollowUser removes the caller's follow of the target user.
func (f *FollowController) UnfollowUser(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := f.db.Where("follower_id = ? AND following_id = ?", userID, targetID).Delete(&models.Follow{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50093, "failed to remove follow")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40408, "not following this user")
		return
	}
	utils.Success(ctx, gin.H{"message": "unfollowed"})
}

// ListFollowers returns the users following the given user.
func (f *FollowController) ListFollowers(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}

	var users []models.User
	if err := f.db.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", targetID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50094, "failed to list followers")
		return
	}
	utils.Success(ctx, gin.H{"followers": users, "count": len(users)})
}

// ListFollowing returns the users the given user follows.
func (f *FollowController) ListFollowing(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}

	var users []models.User
	if err := f.db.
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", targetID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50095, "failed to list following")
		return
	}
	utils.Success(ctx, gin.H{"following": users, "count": len(users)})
}
