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

// CommentController manages comments, including the moderation gate that
// holds back spam before anything is pushed to other readers.
type CommentController struct {
	db  *gorm.DB
	hub realtime.Broadcaster
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB, hub realtime.Broadcaster) *CommentController {
	return &CommentController{db: db, hub: hub}
}

// CreateComment adds a comment to an entry. Content matching a spam keyword
// is stored hidden and the request is rejected with 400: nothing is
// broadcast and the entry author is not notified. The held row stays
// visible to its own author and to admins pending review.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}
	var entry models.Entry
	if err := c.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load entry")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.Comment{
		EntryID:  entry.ID,
		UserID:   userID,
		Content:  content,
		IsHidden: utils.IsSpam(content),
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return awardPoints(tx, userID, PointsComment)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comment")
		return
	}

	// The row is kept hidden for admin review, but the submitter gets a
	// rejection instead of a normal create response.
	if comment.IsHidden {
		utils.Error(ctx, http.StatusBadRequest, 40028, "comment flagged as spam")
		return
	}

	c.hub.Broadcast(realtime.EntryRoom(entry.ID), realtime.Event{
		Name: "newComment",
		Data: comment,
	})

	// Authors are not notified about their own comments.
	if entry.UserID != userID {
		notifyUser(c.db, c.hub, models.Notification{
			UserID:   entry.UserID,
			Type:     models.NotificationComment,
			Message:  fmt.Sprintf("%s commented on your entry", comment.User.Username),
			ActorID:  userID,
			TargetID: entry.ID,
		})
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// ListComments returns the visible comments on an entry, newest first.
// Hidden comments follow the same visibility rule as the entry view: only
// their own author and admins see them.
func (c *CommentController) ListComments(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}
	var entry models.Entry
	if err := c.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load entry")
		return
	}

	query := c.db.Preload("User").Where("entry_id = ?", entry.ID)
	if !isAdmin(ctx) {
		if viewerID, ok := getUserID(ctx); ok {
			query = query.Where("is_hidden = ? OR user_id = ?", false, viewerID)
		} else {
			query = query.Where("is_hidden = ?", false)
		}
	}
	var comments []models.Comment
	if err := query.Order("created_at DESC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"comments": comments})
}

// ApproveComment lets an admin release a held comment. The approval behaves
// like a fresh visible comment: it is broadcast and notifies the author.
func (c *CommentController) ApproveComment(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin only")
		return
	}

	commentID, ok := parseUintParam(ctx, "commentId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid comment id")
		return
	}

	var comment models.Comment
	if err := c.db.Preload("User").First(&comment, commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return
	}
	if !comment.IsHidden {
		utils.Success(ctx, gin.H{"comment": comment})
		return
	}

	comment.IsHidden = false
	if err := c.db.Save(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to update comment")
		return
	}

	c.hub.Broadcast(realtime.EntryRoom(comment.EntryID), realtime.Event{
		Name: "newComment",
		Data: comment,
	})

	var entry models.Entry
	if err := c.db.First(&entry, comment.EntryID).Error; err == nil && entry.UserID != comment.UserID {
		notifyUser(c.db, c.hub, models.Notification{
			UserID:   entry.UserID,
			Type:     models.NotificationComment,
			Message:  fmt.Sprintf("%s commented on your entry", comment.User.Username),
			ActorID:  comment.UserID,
			TargetID: entry.ID,
		})
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment allows the comment owner or an admin to delete a comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	commentID, ok := parseUintParam(ctx, "commentId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid comment id")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to load comment")
		return
	}

	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if comment.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
