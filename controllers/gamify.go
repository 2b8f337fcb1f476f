package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// Point awards per action.
const (
	PointsCreateEntry = 10
	PointsComment     = 5
	PointsReceiveLike = 2
)

// Badge thresholds on total points.
const (
	badgeCentury    = "Century"
	badgeMillennium = "Millennium"
)

// Achievement badge names awarded for writing milestones.
const (
	achievementFirstEntry  = "First Entry"
	achievementTenEntries  = "10 Entries"
	achievementWeekStreak  = "7-Day Streak"
	weekStreakLength       = 7
	tenEntriesThreshold    = 10
)

// lockForUpdate adds a row lock on dialects that support it. SQLite has no
// SELECT ... FOR UPDATE, its writes are serialized anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// awardPoints adds points to a user inside tx and grants point badges when a
// threshold is crossed.
func awardPoints(tx *gorm.DB, userID uint, points int) error {
	var user models.User
	if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
		return err
	}
	before := user.Points
	user.Points = before + points
	if err := tx.Save(&user).Error; err != nil {
		return err
	}

	if before < 100 && user.Points >= 100 {
		if err := grantBadge(tx, userID, badgeCentury, "Earned 100 points"); err != nil {
			return err
		}
	}
	if before < 1000 && user.Points >= 1000 {
		if err := grantBadge(tx, userID, badgeMillennium, "Earned 1000 points"); err != nil {
			return err
		}
	}
	return nil
}

// grantBadge attaches the named badge to the user, creating the badge row on
// first use. Granting an already held badge is a no-op.
func grantBadge(tx *gorm.DB, userID uint, name, description string) error {
	var badge models.Badge
	if err := tx.Where("name = ?", name).First(&badge).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		badge = models.Badge{Name: name, Description: description}
		if err := tx.Create(&badge).Error; err != nil {
			return err
		}
	}

	var count int64
	if err := tx.Table("user_badges").
		Where("user_id = ? AND badge_id = ?", userID, badge.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Exec("INSERT INTO user_badges (user_id, badge_id) VALUES (?, ?)", userID, badge.ID).Error
}

// recordEntryActivity updates the user's writing streak and entry-count
// achievements after a new entry. Must run inside tx.
func recordEntryActivity(tx *gorm.DB, userID uint) error {
	var user models.User
	if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
		return err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case user.LastEntryAt == nil:
		user.CurrentStreak = 1
	case isSameDay(*user.LastEntryAt, today):
		// second entry today, streak unchanged
	case isYesterday(*user.LastEntryAt, today):
		user.CurrentStreak++
	default:
		user.CurrentStreak = 1
	}
	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	user.LastEntryAt = &now
	if err := tx.Save(&user).Error; err != nil {
		return err
	}

	var entryCount int64
	if err := tx.Model(&models.Entry{}).Where("user_id = ?", userID).Count(&entryCount).Error; err != nil {
		return err
	}
	if entryCount >= 1 {
		if err := grantBadge(tx, userID, achievementFirstEntry, "Wrote a first journal entry"); err != nil {
			return err
		}
	}
	if entryCount >= tenEntriesThreshold {
		if err := grantBadge(tx, userID, achievementTenEntries, "Wrote ten journal entries"); err != nil {
			return err
		}
	}
	if user.CurrentStreak >= weekStreakLength {
		if err := grantBadge(tx, userID, achievementWeekStreak, "Wrote entries seven days in a row"); err != nil {
			return err
		}
	}
	return nil
}

func isSameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func isYesterday(last, today time.Time) bool {
	yesterday := today.AddDate(0, 0, -1)
	return last.Year() == yesterday.Year() && last.YearDay() == yesterday.YearDay()
}

// GamificationController exposes points, badges and the leaderboard.
type GamificationController struct {
	db *gorm.DB
}

// NewGamificationController creates a new controller instance.
func NewGamificationController(db *gorm.DB) *GamificationController {
	return &GamificationController{db: db}
}

// GetLeaderboard returns the ten highest scoring users.
func (g *GamificationController) GetLeaderboard(ctx *gin.Context) {
	var users []models.User
	if err := g.db.Order("points DESC").Limit(10).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to load leaderboard")
		return
	}
	utils.Success(ctx, gin.H{"leaderboard": users})
}

// GetMyStats returns the caller's points, streaks and badges.
func (g *GamificationController) GetMyStats(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := g.db.Preload("Badges").First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{
		"points":         user.Points,
		"current_streak": user.CurrentStreak,
		"longest_streak": user.LongestStreak,
		"last_entry_at":  user.LastEntryAt,
		"badges":         user.Badges,
	})
}

// GetReputation returns a user's reputation score. Users without a row
// score zero.
func (g *GamificationController) GetReputation(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}

	var rep models.Reputation
	if err := g.db.Where("user_id = ?", targetID).First(&rep).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to load reputation")
			return
		}
		rep = models.Reputation{UserID: targetID}
	}
	utils.Success(ctx, gin.H{"user_id": rep.UserID, "score": rep.Score})
}

// AdjustReputation applies a signed change to a user's reputation,
// creating the row on first use.
func (g *GamificationController) AdjustReputation(ctx *gin.Context) {
	var req struct {
		Change int `json:"change" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var target models.User
	if err := g.db.First(&target, targetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to load user")
		return
	}

	var rep models.Reputation
	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("user_id = ?", targetID).
			FirstOrCreate(&rep, models.Reputation{UserID: targetID}).Error; err != nil {
			return err
		}
		rep.Score += req.Change
		return tx.Save(&rep).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to update reputation")
		return
	}
	utils.Success(ctx, gin.H{"user_id": rep.UserID, "score": rep.Score})
}
