package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
)

func TestFollowUserNotifiesTarget(t *testing.T) {
	db := newTestDB(t)
	hub := &recordingHub{}
	fc := NewFollowController(db, hub)

	target := seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	fc.FollowUser(ctx)
	wantStatus(t, w, http.StatusOK)

	var follow models.Follow
	if err := db.Where("follower_id = ? AND following_id = ?", actor.ID, target.ID).First(&follow).Error; err != nil {
		t.Fatalf("follow row missing: %v", err)
	}

	notifs := hub.named("newNotification")
	if len(notifs) != 1 {
		t.Fatalf("newNotification events = %d, want 1", len(notifs))
	}
	if notifs[0].Room != realtime.UserRoom(target.ID) {
		t.Errorf("notification room = %q", notifs[0].Room)
	}

	var stored models.Notification
	if err := db.Where("user_id = ? AND type = ?", target.ID, models.NotificationFollow).First(&stored).Error; err != nil {
		t.Fatalf("notification row missing: %v", err)
	}
	if stored.Message != "bob started following you" {
		t.Errorf("notification message = %q", stored.Message)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	db := newTestDB(t)
	fc := NewFollowController(db, &recordingHub{})
	actor := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	fc.FollowUser(ctx)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestFollowTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	fc := NewFollowController(db, &recordingHub{})

	seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	fc.FollowUser(ctx)
	wantStatus(t, w, http.StatusOK)

	ctx, w = testContext(t, http.MethodPost, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	fc.FollowUser(ctx)
	wantStatus(t, w, http.StatusConflict)
}

func TestUnfollowWithoutFollow(t *testing.T) {
	db := newTestDB(t)
	fc := NewFollowController(db, &recordingHub{})

	seedUser(t, db, "alice")
	actor := seedUser(t, db, "bob")

	ctx, w := testContext(t, http.MethodDelete, nil, actor.ID, actor.Username,
		gin.Param{Key: "id", Value: "1"})
	fc.UnfollowUser(ctx)
	wantStatus(t, w, http.StatusNotFound)
}

func TestFollowerAndFollowingLists(t *testing.T) {
	db := newTestDB(t)
	fc := NewFollowController(db, &recordingHub{})

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	mustCreate(t, db, &models.Follow{FollowerID: bob.ID, FollowingID: alice.ID})
	mustCreate(t, db, &models.Follow{FollowerID: carol.ID, FollowingID: alice.ID})
	mustCreate(t, db, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID})

	ctx, w := testContext(t, http.MethodGet, nil, 0, "",
		gin.Param{Key: "id", Value: "1"})
	fc.ListFollowers(ctx)
	wantStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	followers, _ := data["followers"].([]any)
	if len(followers) != 2 {
		t.Fatalf("followers = %d, want 2", len(followers))
	}

	ctx, w = testContext(t, http.MethodGet, nil, 0, "",
		gin.Param{Key: "id", Value: "1"})
	fc.ListFollowing(ctx)
	wantStatus(t, w, http.StatusOK)
	body = decodeBody(t, w)
	data, _ = body["data"].(map[string]any)
	following, _ := data["following"].([]any)
	if len(following) != 1 {
		t.Fatalf("following = %d, want 1", len(following))
	}
}
