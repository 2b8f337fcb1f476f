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

// LikeController manages likes on entries and the pushes they trigger.
type LikeController struct {
	db  *gorm.DB
	hub realtime.Broadcaster
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(db *gorm.DB, hub realtime.Broadcaster) *LikeController {
	return &LikeController{db: db, hub: hub}
}

// LikeEntry records a like. The row is committed before anything is pushed,
// so a client reacting to the event always sees the like in a fresh read.
func (l *LikeController) LikeEntry(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid entry id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var entry models.Entry
	if err := l.db.Preload("User").First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40405, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load entry")
		return
	}

	var existing models.Like
	if err := l.db.Where("user_id = ? AND entry_id = ?", userID, entryID).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40910, "entry already liked")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to check like")
		return
	}

	like := models.Like{UserID: userID, EntryID: entryID}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		if entry.UserID != userID {
			return awardPoints(tx, entry.UserID, PointsReceiveLike)
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to create like")
		return
	}

	l.hub.Broadcast(realtime.EntryRoom(entryID), realtime.Event{
		Name: "newLike",
		Data: gin.H{"id": like.ID, "userId": userID, "entryId": entryID},
	})

	// Authors are not notified about their own likes.
	if entry.UserID != userID {
		var actor models.User
		if err := l.db.First(&actor, userID).Error; err == nil {
			notifyUser(l.db, l.hub, models.Notification{
				UserID:   entry.UserID,
				Type:     models.NotificationLike,
				Message:  fmt.Sprintf("%s liked your entry", actor.Username),
				ActorID:  userID,
				TargetID: entryID,
			})
		}
	}

	utils.Success(ctx, gin.H{"like": like})
}

// UnlikeEntry removes the caller's like and announces the removal.
func (l *LikeController) UnlikeEntry(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid entry id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var like models.Like
	if err := l.db.Where("user_id = ? AND entry_id = ?", userID, entryID).First(&like).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40406, "like not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load like")
		return
	}

	if err := l.db.Delete(&like).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to remove like")
		return
	}

	l.hub.Broadcast(realtime.EntryRoom(entryID), realtime.Event{
		Name: "removeLike",
		Data: gin.H{"userId": userID, "entryId": entryID},
	})

	utils.Success(ctx, gin.H{"message": "like removed"})
}
