package controllers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// AnalyticsController provides site statistics, discovery feeds and topic
// clusters derived from tags.
type AnalyticsController struct {
	db *gorm.DB
}

// NewAnalyticsController creates a new AnalyticsController instance.
func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{db: db}
}

// GetStats returns the site analytics dashboard payload: overall totals,
// the most liked entries, the most active users, 30-day user growth, tag
// distribution and the engagement rate. Signed-in callers additionally get
// their personal writing stats.
func (a *AnalyticsController) GetStats(ctx *gin.Context) {
	var userCount, entryCount, commentCount, likeCount, followCount int64
	a.db.Model(&models.User{}).Count(&userCount)
	a.db.Model(&models.Entry{}).Count(&entryCount)
	a.db.Model(&models.Comment{}).Where("is_hidden = ?", false).Count(&commentCount)
	a.db.Model(&models.Like{}).Count(&likeCount)
	a.db.Model(&models.Follow{}).Count(&followCount)

	// Daily active is sourced from the page-view middleware.
	var dailyActive int64
	today := time.Now().In(time.Local).Format("2006-01-02")
	a.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive)

	type topEntry struct {
		ID           uint   `json:"id"`
		Title        string `json:"title"`
		Author       string `json:"author"`
		LikeCount    int64  `json:"like_count"`
		CommentCount int64  `json:"comment_count"`
	}
	var topEntries []topEntry
	if err := a.db.Raw(`
		SELECT entries.id, entries.title, users.username AS author,
		       (SELECT COUNT(*) FROM likes WHERE likes.entry_id = entries.id) AS like_count,
		       (SELECT COUNT(*) FROM comments WHERE comments.entry_id = entries.id AND comments.is_hidden = ?) AS comment_count
		FROM entries JOIN users ON users.id = entries.user_id
		ORDER BY like_count DESC, entries.created_at DESC
		LIMIT 5`, false).Scan(&topEntries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50115, "failed to load top entries")
		return
	}

	type activeUser struct {
		ID             uint   `json:"id"`
		Username       string `json:"username"`
		EntryCount     int64  `json:"entry_count"`
		FollowerCount  int64  `json:"follower_count"`
		FollowingCount int64  `json:"following_count"`
	}
	var activeUsers []activeUser
	if err := a.db.Raw(`
		SELECT users.id, users.username,
		       (SELECT COUNT(*) FROM entries WHERE entries.user_id = users.id) AS entry_count,
		       (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS follower_count,
		       (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count
		FROM users
		ORDER BY entry_count DESC
		LIMIT 5`).Scan(&activeUsers).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50116, "failed to load active users")
		return
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

	type growthPoint struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}
	var userGrowth []growthPoint
	if err := a.db.Raw(`
		SELECT DATE(created_at) AS date, COUNT(*) AS count
		FROM users
		WHERE created_at >= ? AND deleted_at IS NULL
		GROUP BY DATE(created_at)
		ORDER BY date ASC`, thirtyDaysAgo).Scan(&userGrowth).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50117, "failed to load user growth")
		return
	}

	type tagCount struct {
		Tag   string `json:"tag"`
		Count int64  `json:"count"`
	}
	var tagDistribution []tagCount
	if err := a.db.Table("tags").
		Select("tags.name AS tag, COUNT(entry_tags.entry_id) AS count").
		Joins("JOIN entry_tags ON entry_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("count DESC").
		Limit(5).
		Scan(&tagDistribution).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50118, "failed to load tag distribution")
		return
	}

	// Engagement rate: share of the last 30 days' new users that wrote,
	// liked or commented in the same window.
	var newUsers30, activeUsers30 int64
	a.db.Model(&models.User{}).Where("created_at >= ?", thirtyDaysAgo).Count(&newUsers30)
	a.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT user_id FROM entries WHERE created_at >= ?
			UNION
			SELECT user_id FROM likes WHERE created_at >= ?
			UNION
			SELECT user_id FROM comments WHERE created_at >= ?
		) AS recent`, thirtyDaysAgo, thirtyDaysAgo, thirtyDaysAgo).Scan(&activeUsers30)
	var engagementRate float64
	if newUsers30 > 0 {
		engagementRate = float64(activeUsers30) / float64(newUsers30)
	}

	payload := gin.H{
		"user_count":         userCount,
		"entry_count":        entryCount,
		"comment_count":      commentCount,
		"like_count":         likeCount,
		"follow_count":       followCount,
		"daily_active_count": dailyActive,
		"top_entries":        topEntries,
		"most_active_users":  activeUsers,
		"user_growth":        userGrowth,
		"tag_distribution":   tagDistribution,
		"engagement_rate":    engagementRate,
	}

	if viewerID, ok := getUserID(ctx); ok {
		personal, err := a.personalStats(viewerID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50119, "failed to load personal stats")
			return
		}
		payload["personal_stats"] = personal
	}

	utils.Success(ctx, payload)
}

func (a *AnalyticsController) personalStats(userID uint) (gin.H, error) {
	var entryCount, likesReceived, commentsReceived int64
	if err := a.db.Model(&models.Entry{}).Where("user_id = ?", userID).Count(&entryCount).Error; err != nil {
		return nil, err
	}
	if err := a.db.Model(&models.Like{}).
		Where("entry_id IN (SELECT id FROM entries WHERE user_id = ?)", userID).
		Count(&likesReceived).Error; err != nil {
		return nil, err
	}
	if err := a.db.Model(&models.Comment{}).
		Where("entry_id IN (SELECT id FROM entries WHERE user_id = ?) AND is_hidden = ?", userID, false).
		Count(&commentsReceived).Error; err != nil {
		return nil, err
	}

	var avgLength float64
	if err := a.db.Model(&models.Entry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(AVG(LENGTH(content)),0)").
		Scan(&avgLength).Error; err != nil {
		return nil, err
	}

	type tagCount struct {
		Tag   string `json:"tag"`
		Count int64  `json:"count"`
	}
	var tagsUsed []tagCount
	if err := a.db.Table("tags").
		Select("tags.name AS tag, COUNT(entry_tags.entry_id) AS count").
		Joins("JOIN entry_tags ON entry_tags.tag_id = tags.id").
		Joins("JOIN entries ON entries.id = entry_tags.entry_id").
		Where("entries.user_id = ?", userID).
		Group("tags.id, tags.name").
		Order("count DESC").
		Scan(&tagsUsed).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"entry_count":          entryCount,
		"likes_received":       likesReceived,
		"comments_received":    commentsReceived,
		"average_entry_length": avgLength,
		"tags_used":            tagsUsed,
	}, nil
}

// GetEntryStats returns page views and engagement counts for one entry.
func (a *AnalyticsController) GetEntryStats(ctx *gin.Context) {
	id := ctx.Param("id")

	var pv int64
	if err := a.db.Model(&models.PageView{}).
		Where("path = ?", "/api/entries/"+id).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}

	var likeCount int64
	if err := a.db.Model(&models.Like{}).Where("entry_id = ?", id).Count(&likeCount).Error; err != nil {
		likeCount = 0
	}
	var commentCount int64
	if err := a.db.Model(&models.Comment{}).
		Where("entry_id = ? AND is_hidden = ?", id, false).
		Count(&commentCount).Error; err != nil {
		commentCount = 0
	}

	utils.Success(ctx, gin.H{
		"pv":            pv,
		"like_count":    likeCount,
		"comment_count": commentCount,
	})
}

// GetRecommendations builds the caller's feed from their tag interests: the
// tags on entries they wrote or liked select other authors' recent entries
// carrying any of those tags. Entries by followed authors rank first.
func (a *AnalyticsController) GetRecommendations(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var interestIDs []uint
	if err := a.db.Table("tags").
		Distinct("tags.id").
		Joins("JOIN entry_tags ON entry_tags.tag_id = tags.id").
		Joins("JOIN entries ON entries.id = entry_tags.entry_id").
		Where("entries.user_id = ? OR entries.id IN (SELECT entry_id FROM likes WHERE user_id = ?)", userID, userID).
		Pluck("tags.id", &interestIDs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50110, "failed to load interests")
		return
	}
	if len(interestIDs) == 0 {
		utils.Success(ctx, gin.H{"items": []models.Entry{}})
		return
	}

	var items []models.Entry
	if err := a.db.Preload("User").Preload("Tags").
		Where("user_id <> ?", userID).
		Where("id IN (SELECT entry_id FROM entry_tags WHERE tag_id IN ?)", interestIDs).
		Order(fmt.Sprintf("CASE WHEN user_id IN (SELECT following_id FROM follows WHERE follower_id = %d) THEN 0 ELSE 1 END", userID)).
		Order("created_at DESC").
		Limit(10).
		Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50111, "failed to load feed")
		return
	}

	utils.Success(ctx, gin.H{"items": items})
}

// GetTopicClusters maps each tag to the set of tags it co-occurs with on
// entries. The grouping is done in memory from one preloaded tag walk.
func (a *AnalyticsController) GetTopicClusters(ctx *gin.Context) {
	var tags []models.Tag
	if err := a.db.Preload("Entries.Tags").Find(&tags).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50112, "failed to load topic clusters")
		return
	}

	clusters := make(map[string][]string, len(tags))
	for _, tag := range tags {
		related := map[string]bool{}
		for _, entry := range tag.Entries {
			for _, other := range entry.Tags {
				if other.Name != tag.Name {
					related[other.Name] = true
				}
			}
		}
		names := make([]string, 0, len(related))
		for name := range related {
			names = append(names, name)
		}
		sort.Strings(names)
		clusters[tag.Name] = names
	}

	utils.Success(ctx, gin.H{"clusters": clusters})
}

// FlagEntry lets a user report an entry for review.
func (a *AnalyticsController) FlagEntry(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40120, "invalid request payload")
		return
	}

	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var entry models.Entry
	if err := a.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50113, "failed to load entry")
		return
	}

	flag := models.Flag{UserID: userID, EntryID: entryID, Reason: utils.Sanitize(req.Reason)}
	if err := a.db.Create(&flag).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50114, "failed to record flag")
		return
	}
	utils.Success(ctx, gin.H{"flag": flag})
}
