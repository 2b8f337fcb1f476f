package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/models"
)

func heldBadges(t *testing.T, db *gorm.DB, userID uint) []string {
	t.Helper()
	var names []string
	err := db.Table("badges").
		Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Pluck("badges.name", &names).Error
	if err != nil {
		t.Fatalf("load badges: %v", err)
	}
	return names
}

func hasBadge(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestAwardPointsGrantsCenturyOnce(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	db.Model(user).Update("points", 95)

	if err := awardPoints(db, user.ID, PointsCreateEntry); err != nil {
		t.Fatalf("awardPoints: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.Points != 105 {
		t.Fatalf("points = %d, want 105", reloaded.Points)
	}
	names := heldBadges(t, db, user.ID)
	if !hasBadge(names, badgeCentury) {
		t.Fatalf("Century badge missing, have %v", names)
	}

	// Crossing the threshold again must not duplicate the badge.
	if err := awardPoints(db, user.ID, PointsComment); err != nil {
		t.Fatalf("awardPoints: %v", err)
	}
	if got := heldBadges(t, db, user.ID); len(got) != 1 {
		t.Fatalf("badges = %v, want exactly one", got)
	}
}

func TestAwardPointsGrantsMillennium(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	db.Model(user).Update("points", 995)

	if err := awardPoints(db, user.ID, PointsCreateEntry); err != nil {
		t.Fatalf("awardPoints: %v", err)
	}
	names := heldBadges(t, db, user.ID)
	if !hasBadge(names, badgeMillennium) {
		t.Fatalf("Millennium badge missing, have %v", names)
	}
}

func TestStreakIncrementsOnConsecutiveDays(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	yesterday := time.Now().Add(-24 * time.Hour)
	db.Model(user).Updates(map[string]interface{}{
		"current_streak": 3,
		"longest_streak": 3,
		"last_entry_at":  yesterday,
	})
	seedEntry(t, db, user.ID, "today's entry")

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.CurrentStreak != 4 {
		t.Fatalf("streak = %d, want 4", reloaded.CurrentStreak)
	}
	if reloaded.LongestStreak != 4 {
		t.Fatalf("longest streak = %d, want 4", reloaded.LongestStreak)
	}
}

func TestStreakUnchangedSameDay(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	now := time.Now()
	db.Model(user).Updates(map[string]interface{}{
		"current_streak": 2,
		"longest_streak": 5,
		"last_entry_at":  now,
	})
	seedEntry(t, db, user.ID, "second today")

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.CurrentStreak != 2 {
		t.Fatalf("streak = %d, want 2", reloaded.CurrentStreak)
	}
	if reloaded.LongestStreak != 5 {
		t.Fatalf("longest streak = %d, want 5", reloaded.LongestStreak)
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	lastWeek := time.Now().Add(-5 * 24 * time.Hour)
	db.Model(user).Updates(map[string]interface{}{
		"current_streak": 6,
		"longest_streak": 6,
		"last_entry_at":  lastWeek,
	})
	seedEntry(t, db, user.ID, "back again")

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", reloaded.CurrentStreak)
	}
	if reloaded.LongestStreak != 6 {
		t.Fatalf("longest streak = %d, want 6", reloaded.LongestStreak)
	}
}

func TestWeekStreakGrantsBadge(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	yesterday := time.Now().Add(-24 * time.Hour)
	db.Model(user).Updates(map[string]interface{}{
		"current_streak": 6,
		"longest_streak": 6,
		"last_entry_at":  yesterday,
	})
	seedEntry(t, db, user.ID, "day seven")

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}
	names := heldBadges(t, db, user.ID)
	if !hasBadge(names, achievementWeekStreak) {
		t.Fatalf("7-Day Streak badge missing, have %v", names)
	}
}

func TestFirstEntryAchievement(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	seedEntry(t, db, user.ID, "hello")

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}
	names := heldBadges(t, db, user.ID)
	if !hasBadge(names, achievementFirstEntry) {
		t.Fatalf("First Entry badge missing, have %v", names)
	}
	if hasBadge(names, achievementTenEntries) {
		t.Fatal("10 Entries granted after a single entry")
	}
}

func TestTenEntriesAchievement(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice")
	for i := 0; i < tenEntriesThreshold; i++ {
		seedEntry(t, db, user.ID, "entry")
	}

	if err := recordEntryActivity(db, user.ID); err != nil {
		t.Fatalf("recordEntryActivity: %v", err)
	}
	names := heldBadges(t, db, user.ID)
	if !hasBadge(names, achievementTenEntries) {
		t.Fatalf("10 Entries badge missing, have %v", names)
	}
}

func TestLeaderboardTopTenByPoints(t *testing.T) {
	db := newTestDB(t)
	gc := NewGamificationController(db)

	for i := 0; i < 12; i++ {
		u := seedUser(t, db, "user"+string(rune('a'+i)))
		db.Model(u).Update("points", (i+1)*10)
	}

	ctx, w := testContext(t, http.MethodGet, nil, 0, "")
	gc.GetLeaderboard(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	users, _ := data["leaderboard"].([]any)
	if len(users) != 10 {
		t.Fatalf("leaderboard size = %d, want 10", len(users))
	}
	top, _ := users[0].(map[string]any)
	if got, _ := top["points"].(float64); got != 120 {
		t.Fatalf("top points = %v, want 120", got)
	}
}

func TestReputationDefaultsToZero(t *testing.T) {
	db := newTestDB(t)
	gc := NewGamificationController(db)
	user := seedUser(t, db, "alice")

	ctx, w := testContext(t, http.MethodGet, nil, 0, "",
		gin.Param{Key: "id", Value: "1"})
	gc.GetReputation(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["score"].(float64); got != 0 {
		t.Errorf("score = %v, want 0 for user %d without adjustments", got, user.ID)
	}
}

func TestAdjustReputationAccumulates(t *testing.T) {
	db := newTestDB(t)
	gc := NewGamificationController(db)
	target := seedUser(t, db, "alice")
	rater := seedUser(t, db, "bob")

	for _, change := range []int{5, -2} {
		ctx, w := testContext(t, http.MethodPost, gin.H{"change": change}, rater.ID, rater.Username,
			gin.Param{Key: "id", Value: "1"})
		gc.AdjustReputation(ctx)
		wantStatus(t, w, http.StatusOK)
	}

	var rep models.Reputation
	if err := db.Where("user_id = ?", target.ID).First(&rep).Error; err != nil {
		t.Fatalf("reputation row missing: %v", err)
	}
	if rep.Score != 3 {
		t.Errorf("score = %d, want 3", rep.Score)
	}

	var rows int64
	db.Model(&models.Reputation{}).Count(&rows)
	if rows != 1 {
		t.Errorf("reputation rows = %d, want 1", rows)
	}
}

func TestAdjustReputationUnknownUser(t *testing.T) {
	db := newTestDB(t)
	gc := NewGamificationController(db)
	rater := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodPost, gin.H{"change": 1}, rater.ID, rater.Username,
		gin.Param{Key: "id", Value: "99"})
	gc.AdjustReputation(ctx)
	wantStatus(t, w, http.StatusNotFound)
}

func TestIsYesterdayUsesCalendarDays(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !isYesterday(time.Date(2026, time.February, 28, 23, 30, 0, 0, time.UTC), today) {
		t.Error("last day of previous month not recognized as yesterday")
	}
	if isYesterday(time.Date(2026, time.February, 27, 12, 0, 0, 0, time.UTC), today) {
		t.Error("two days back counted as yesterday")
	}

	// Across a daylight saving transition the previous calendar day is 23
	// hours long; a fixed 24h subtraction would skip it.
	nyc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable")
	}
	dstDay := time.Date(2026, time.March, 9, 0, 0, 0, 0, nyc)
	if !isYesterday(time.Date(2026, time.March, 8, 22, 0, 0, 0, nyc), dstDay) {
		t.Error("spring-forward day not recognized as yesterday")
	}
}
