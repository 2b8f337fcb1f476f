package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
)

func TestLikeEntryBroadcastsAndNotifiesAuthor(t *testing.T) {
	db := newTestDB(t)
	hub := &recordingHub{}
	lc := NewLikeController(db, hub)

	author := seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")
	entry := seedEntry(t, db, author.ID, "hello world")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.LikeEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	var likeCount int64
	db.Model(&models.Like{}).Where("user_id = ? AND entry_id = ?", actor.ID, entry.ID).Count(&likeCount)
	if likeCount != 1 {
		t.Fatalf("like rows = %d, want 1", likeCount)
	}

	likes := hub.named("newLike")
	if len(likes) != 1 {
		t.Fatalf("newLike events = %d, want 1", len(likes))
	}
	if likes[0].Room != realtime.EntryRoom(entry.ID) {
		t.Errorf("newLike room = %q, want %q", likes[0].Room, realtime.EntryRoom(entry.ID))
	}

	notifs := hub.named("newNotification")
	if len(notifs) != 1 {
		t.Fatalf("newNotification events = %d, want 1", len(notifs))
	}
	if notifs[0].Room != realtime.UserRoom(author.ID) {
		t.Errorf("notification room = %q, want %q", notifs[0].Room, realtime.UserRoom(author.ID))
	}

	var stored models.Notification
	if err := db.Where("user_id = ?", author.ID).First(&stored).Error; err != nil {
		t.Fatalf("notification row missing: %v", err)
	}
	if stored.Type != models.NotificationLike {
		t.Errorf("notification type = %q, want %q", stored.Type, models.NotificationLike)
	}
	if stored.Message != "bob liked your entry" {
		t.Errorf("notification message = %q", stored.Message)
	}

	var reloaded models.User
	db.First(&reloaded, author.ID)
	if reloaded.Points != PointsReceiveLike {
		t.Errorf("author points = %d, want %d", reloaded.Points, PointsReceiveLike)
	}
}

func TestLikeOwnEntrySkipsNotification(t *testing.T) {
	db := newTestDB(t)
	hub := &recordingHub{}
	lc := NewLikeController(db, hub)

	author := seedUser(t, db, "alice")
	seedEntry(t, db, author.ID, "self like")

	ctx, w := testContext(t, http.MethodPost, nil, author.ID, author.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.LikeEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	if got := hub.named("newNotification"); len(got) != 0 {
		t.Fatalf("self-like produced %d notifications", len(got))
	}
	var rows int64
	db.Model(&models.Notification{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("notification rows = %d, want 0", rows)
	}

	var reloaded models.User
	db.First(&reloaded, author.ID)
	if reloaded.Points != 0 {
		t.Errorf("self-like awarded %d points", reloaded.Points)
	}
}

func TestLikeEntryTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	hub := &recordingHub{}
	lc := NewLikeController(db, hub)

	author := seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")
	seedEntry(t, db, author.ID, "popular")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.LikeEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	ctx, w = testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.LikeEntry(ctx)
	wantStatus(t, w, http.StatusConflict)
}

func TestLikeMissingEntry(t *testing.T) {
	db := newTestDB(t)
	lc := NewLikeController(db, &recordingHub{})
	actor := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "99"})
	lc.LikeEntry(ctx)
	wantStatus(t, w, http.StatusNotFound)
}

func TestUnlikeEntryBroadcastsRemoval(t *testing.T) {
	db := newTestDB(t)
	hub := &recordingHub{}
	lc := NewLikeController(db, hub)

	author := seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")
	entry := seedEntry(t, db, author.ID, "toggled")
	mustCreate(t, db, &models.Like{UserID: actor.ID, EntryID: entry.ID})

	ctx, w := testContext(t, http.MethodDelete, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.UnlikeEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	var rows int64
	db.Model(&models.Like{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("like rows = %d after unlike", rows)
	}

	removed := hub.named("removeLike")
	if len(removed) != 1 {
		t.Fatalf("removeLike events = %d, want 1", len(removed))
	}
	if removed[0].Room != realtime.EntryRoom(entry.ID) {
		t.Errorf("removeLike room = %q", removed[0].Room)
	}
}

func TestUnlikeWithoutLike(t *testing.T) {
	db := newTestDB(t)
	lc := NewLikeController(db, &recordingHub{})

	author := seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")
	seedEntry(t, db, author.ID, "never liked")

	ctx, w := testContext(t, http.MethodDelete, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	lc.UnlikeEntry(ctx)
	wantStatus(t, w, http.StatusNotFound)
}
