package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clubdev/clubdev/models"
)

func TestCreateAndGetMindMap(t *testing.T) {
	db := newTestDB(t)
	mc := NewMindMapController(db)
	user := seedUser(t, db, "alice")

	ctx, w := testContext(t, http.MethodPost, gin.H{
		"name":  "architecture",
		"nodes": []gin.H{{"id": "1", "label": "root", "x": 0, "y": 0}},
		"edges": []gin.H{},
	}, user.ID, user.Username)
	mc.CreateMindMap(ctx)
	wantStatus(t, w, http.StatusOK)

	var stored models.MindMap
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("mind map row missing: %v", err)
	}
	var content struct {
		Nodes []models.MindMapNode `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(stored.Content), &content); err != nil {
		t.Fatalf("stored content not JSON: %v", err)
	}
	if len(content.Nodes) != 1 || content.Nodes[0].Label != "root" {
		t.Fatalf("stored nodes = %+v", content.Nodes)
	}

	ctx, w = testContext(t, http.MethodGet, nil, user.ID, user.Username,
		gin.Param{Key: "id", Value: "1"})
	mc.GetMindMap(ctx)
	wantStatus(t, w, http.StatusOK)
}

func TestPrivateMindMapHiddenFromOthers(t *testing.T) {
	db := newTestDB(t)
	mc := NewMindMapController(db)

	owner := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	mustCreate(t, db, &models.MindMap{UserID: owner.ID, Name: "secret", Content: "{}"})

	ctx, w := testContext(t, http.MethodGet, nil, other.ID, other.Username,
		gin.Param{Key: "id", Value: "1"})
	mc.GetMindMap(ctx)
	wantStatus(t, w, http.StatusNotFound)
}

func TestPublicMindMapVisibleToAnyone(t *testing.T) {
	db := newTestDB(t)
	mc := NewMindMapController(db)

	owner := seedUser(t, db, "alice")
	mustCreate(t, db, &models.MindMap{UserID: owner.ID, Name: "shared", Content: "{}", IsPublic: true})

	ctx, w := testContext(t, http.MethodGet, nil, 0, "",
		gin.Param{Key: "id", Value: "1"})
	mc.GetMindMap(ctx)
	wantStatus(t, w, http.StatusOK)
}

func TestUpdateMindMapOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	mc := NewMindMapController(db)

	owner := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	mustCreate(t, db, &models.MindMap{UserID: owner.ID, Name: "mine", Content: "{}"})

	ctx, w := testContext(t, http.MethodPut, gin.H{"name": "stolen"}, other.ID, other.Username,
		gin.Param{Key: "id", Value: "1"})
	mc.UpdateMindMap(ctx)
	wantStatus(t, w, http.StatusForbidden)
}

func TestParseOutlineEndpoint(t *testing.T) {
	mc := NewMindMapController(newTestDB(t))

	ctx, w := testContext(t, http.MethodPost, gin.H{
		"outline": "Root\n  Child",
	}, 1, "alice")
	mc.ParseOutline(ctx)
	wantStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]any)
	nodes, _ := data["nodes"].([]any)
	edges, _ := data["edges"].([]any)
	if len(nodes) != 2 || len(edges) != 1 {
		t.Fatalf("nodes=%d edges=%d, want 2 and 1", len(nodes), len(edges))
	}
}
