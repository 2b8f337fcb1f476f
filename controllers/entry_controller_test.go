package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubdev/clubdev/models"
)

func TestCreateEntryAwardsPointsAndStreak(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)
	user := seedUser(t, db, "alice")

	ctx, w := testContext(t, http.MethodPost, gin.H{
		"title":    "day one",
		"content":  "started the build log",
		"tags":     []string{"Go", "go", "journal"},
		"category": "devlog",
	}, user.ID, user.Username)
	ec.CreateEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	var entry models.Entry
	if err := db.Preload("Tags").Preload("Category").First(&entry).Error; err != nil {
		t.Fatalf("entry row missing: %v", err)
	}
	if len(entry.Tags) != 2 {
		t.Errorf("tags = %d, want 2 after dedup", len(entry.Tags))
	}
	if entry.Category == nil || entry.Category.Name != "devlog" {
		t.Errorf("category = %+v", entry.Category)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.Points != PointsCreateEntry {
		t.Errorf("points = %d, want %d", reloaded.Points, PointsCreateEntry)
	}
	if reloaded.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", reloaded.CurrentStreak)
	}
	if reloaded.LastEntryAt == nil {
		t.Error("last entry timestamp not set")
	}
	if !hasBadge(heldBadges(t, db, user.ID), achievementFirstEntry) {
		t.Error("First Entry badge missing")
	}
}

func TestGetEntryCountsExcludeHiddenComments(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	liker := seedUser(t, db, "bob")
	spammer := seedUser(t, db, "mallory")
	entry := seedEntry(t, db, author.ID, "counted")

	mustCreate(t, db, &models.Like{UserID: liker.ID, EntryID: entry.ID})
	mustCreate(t, db, &models.Like{UserID: spammer.ID, EntryID: entry.ID})
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: liker.ID, Content: "nice"})
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: author.ID, Content: "thanks"})
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: spammer.ID, Content: "buy now", IsHidden: true})

	ctx, w := testContext(t, http.MethodGet, nil, liker.ID, liker.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.GetEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	entryJSON, _ := data["entry"].(map[string]any)
	if got, _ := entryJSON["like_count"].(float64); got != 2 {
		t.Errorf("like_count = %v, want 2", got)
	}
	if got, _ := entryJSON["comment_count"].(float64); got != 2 {
		t.Errorf("comment_count = %v, hidden comment must not count", got)
	}
	if liked, _ := entryJSON["liked_by_me"].(bool); !liked {
		t.Error("liked_by_me = false for a liker")
	}
	comments, _ := data["comments"].([]any)
	if len(comments) != 2 {
		t.Errorf("comments = %d, want 2 visible", len(comments))
	}
}

func TestGetEntryHiddenCommentVisibleToItsAuthor(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	spammer := seedUser(t, db, "mallory")
	entry := seedEntry(t, db, author.ID, "moderated")
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: spammer.ID, Content: "buy now", IsHidden: true})

	ctx, w := testContext(t, http.MethodGet, nil, spammer.ID, spammer.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.GetEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	comments, _ := data["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("author of held comment sees %d comments, want 1", len(comments))
	}
}

func TestGetEntryHiddenCommentInvisibleToOthers(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	spammer := seedUser(t, db, "mallory")
	reader := seedUser(t, db, "bob")
	entry := seedEntry(t, db, author.ID, "moderated")
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: spammer.ID, Content: "buy now", IsHidden: true})

	ctx, w := testContext(t, http.MethodGet, nil, reader.ID, reader.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.GetEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	comments, _ := data["comments"].([]any)
	if len(comments) != 0 {
		t.Fatalf("reader sees %d hidden comments", len(comments))
	}

	// An anonymous request is filtered the same way.
	ctx, w = testContext(t, http.MethodGet, nil, 0, "",
		gin.Param{Key: "id", Value: "1"})
	ec.GetEntry(ctx)
	wantStatus(t, w, http.StatusOK)
	body = decodeBody(t, w)
	data, _ = body["data"].(map[string]any)
	comments, _ = data["comments"].([]any)
	if len(comments) != 0 {
		t.Fatalf("anonymous reader sees %d hidden comments", len(comments))
	}
}

func TestGetEntryAdminSeesHeldComments(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	spammer := seedUser(t, db, "mallory")
	admin := seedUser(t, db, "admin")
	entry := seedEntry(t, db, author.ID, "moderated")
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: spammer.ID, Content: "buy now", IsHidden: true})

	ctx, w := testContext(t, http.MethodGet, nil, admin.ID, admin.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.GetEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	comments, _ := data["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("admin sees %d comments, want 1", len(comments))
	}
}

func TestListEntriesSearchMatchesTags(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	tagged := seedEntry(t, db, author.ID, "plain title")
	other := seedEntry(t, db, author.ID, "unrelated")
	_ = other

	tag := models.Tag{Name: "golang"}
	mustCreate(t, db, &tag)
	if err := db.Model(tagged).Association("Tags").Append(&tag); err != nil {
		t.Fatalf("attach tag: %v", err)
	}

	ctx, w := testContextURL(t, http.MethodGet, "/?search=golang", nil, author.ID, author.Username)
	ec.ListEntries(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	items, _ := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("search hits = %d, want 1", len(items))
	}
	hit, _ := items[0].(map[string]any)
	if hit["title"] != "plain title" {
		t.Errorf("search hit = %v", hit["title"])
	}
}

func TestUpdateEntryAuthorOnly(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	intruder := seedUser(t, db, "bob")
	seedEntry(t, db, author.ID, "original")

	ctx, w := testContext(t, http.MethodPut, gin.H{"title": "hijacked", "content": "x"}, intruder.ID, intruder.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.UpdateEntry(ctx)
	wantStatus(t, w, http.StatusForbidden)

	ctx, w = testContext(t, http.MethodPut, gin.H{"title": "revised", "content": "y"}, author.ID, author.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.UpdateEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	var entry models.Entry
	db.First(&entry, 1)
	if entry.Title != "revised" {
		t.Errorf("title = %q after update", entry.Title)
	}
}

func TestDeleteEntryCascades(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	entry := seedEntry(t, db, author.ID, "doomed")
	mustCreate(t, db, &models.Like{UserID: other.ID, EntryID: entry.ID})
	mustCreate(t, db, &models.Comment{EntryID: entry.ID, UserID: other.ID, Content: "bye"})

	ctx, w := testContext(t, http.MethodDelete, nil, author.ID, author.Username,
		gin.Param{Key: "id", Value: "1"})
	ec.DeleteEntry(ctx)
	wantStatus(t, w, http.StatusOK)

	var entries, likes, comments int64
	db.Model(&models.Entry{}).Count(&entries)
	db.Model(&models.Like{}).Count(&likes)
	db.Model(&models.Comment{}).Count(&comments)
	if entries != 0 || likes != 0 || comments != 0 {
		t.Fatalf("after delete: entries=%d likes=%d comments=%d", entries, likes, comments)
	}
}

func TestSearchEntriesRanksOwnFirst(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	caller := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	older := time.Now().Add(-time.Hour)
	mine := seedEntry(t, db, caller.ID, "debugging goroutines")
	db.Model(mine).Update("created_at", older)
	seedEntry(t, db, other.ID, "goroutines in production")
	seedEntry(t, db, other.ID, "gardening notes")

	ctx, w := testContextURL(t, http.MethodGet, "/?q=goroutines", nil, caller.ID, caller.Username)
	ec.SearchEntries(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	items, _ := data["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	// The caller's older entry still outranks the newer match by another
	// author.
	first, _ := items[0].(map[string]any)
	if first["title"] != mine.Title {
		t.Errorf("first result = %v, want caller's own entry", first["title"])
	}
}

func TestSearchEntriesMatchesTagNames(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	caller := seedUser(t, db, "alice")
	author := seedUser(t, db, "bob")

	tag := models.Tag{Name: "kubernetes"}
	mustCreate(t, db, &tag)
	tagged := seedEntry(t, db, author.ID, "cluster upgrade diary")
	if err := db.Model(tagged).Association("Tags").Append(&tag); err != nil {
		t.Fatalf("attach tag: %v", err)
	}
	seedEntry(t, db, author.ID, "unrelated")

	ctx, w := testContextURL(t, http.MethodGet, "/?q=kubernetes", nil, caller.ID, caller.Username)
	ec.SearchEntries(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	items, _ := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
}

func TestSearchEntriesRequiresQuery(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)
	caller := seedUser(t, db, "alice")

	ctx, w := testContext(t, http.MethodGet, nil, caller.ID, caller.Username)
	ec.SearchEntries(ctx)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestRecentEntriesReturnsLastFive(t *testing.T) {
	db := newTestDB(t)
	ec := NewEntryController(db)

	caller := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	seedEntry(t, db, other.ID, "not mine")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		e := seedEntry(t, db, caller.ID, fmt.Sprintf("entry %d", i))
		db.Model(e).Update("created_at", base.Add(time.Duration(i)*time.Minute))
	}

	ctx, w := testContext(t, http.MethodGet, nil, caller.ID, caller.Username)
	ec.ListRecentEntries(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	items, _ := data["items"].([]any)
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5", len(items))
	}
	first, _ := items[0].(map[string]any)
	if first["title"] != "entry 6" {
		t.Errorf("first recent = %v, want the newest entry", first["title"])
	}
	for _, raw := range items {
		item, _ := raw.(map[string]any)
		if item["title"] == "not mine" {
			t.Error("another user's entry in recent list")
		}
		if _, has := item["content"]; has {
			t.Error("recent listing leaks entry content")
		}
	}
}
