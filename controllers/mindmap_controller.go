package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// MindMapController manages saved mind maps and outline parsing.
type MindMapController struct {
	db *gorm.DB
}

// NewMindMapController creates a new MindMapController instance.
func NewMindMapController(db *gorm.DB) *MindMapController {
	return &MindMapController{db: db}
}

type mindMapContent struct {
	Nodes []models.MindMapNode `json:"nodes"`
	Edges []models.MindMapEdge `json:"edges"`
}

// CreateMindMap stores a new mind map for the caller.
func (m *MindMapController) CreateMindMap(ctx *gin.Context) {
	var req struct {
		Name     string               `json:"name" binding:"required,min=1"`
		Nodes    []models.MindMapNode `json:"nodes"`
		Edges    []models.MindMapEdge `json:"edges"`
		IsPublic bool                 `json:"is_public"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	content, err := json.Marshal(mindMapContent{Nodes: req.Nodes, Edges: req.Edges})
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40091, "invalid mind map content")
		return
	}

	mindMap := models.MindMap{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Content:  string(content),
		IsPublic: req.IsPublic,
	}
	if err := m.db.Create(&mindMap).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50100, "failed to create mind map")
		return
	}
	utils.Success(ctx, gin.H{"mind_map": mindMap})
}

// ListMindMaps returns the caller's mind maps.
func (m *MindMapController) ListMindMaps(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var maps []models.MindMap
	if err := m.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&maps).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50101, "failed to list mind maps")
		return
	}
	utils.Success(ctx, gin.H{"mind_maps": maps})
}

// GetMindMap returns one mind map. Private maps are only visible to their
// owner; public ones to anyone.
func (m *MindMapController) GetMindMap(ctx *gin.Context) {
	mapID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40092, "invalid mind map id")
		return
	}

	var mindMap models.MindMap
	if err := m.db.First(&mindMap, mapID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40440, "mind map not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50102, "failed to load mind map")
		return
	}

	viewerID, _ := getUserID(ctx)
	if !mindMap.IsPublic && mindMap.UserID != viewerID {
		utils.Error(ctx, http.StatusNotFound, 40440, "mind map not found")
		return
	}
	utils.Success(ctx, gin.H{"mind_map": mindMap})
}

// UpdateMindMap replaces the name and content of the caller's mind map.
func (m *MindMapController) UpdateMindMap(ctx *gin.Context) {
	var req struct {
		Name     string               `json:"name" binding:"required,min=1"`
		Nodes    []models.MindMapNode `json:"nodes"`
		Edges    []models.MindMapEdge `json:"edges"`
		IsPublic *bool                `json:"is_public"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}

	mapID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40092, "invalid mind map id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var mindMap models.MindMap
	if err := m.db.First(&mindMap, mapID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40440, "mind map not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50103, "failed to load mind map")
		return
	}
	if mindMap.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40305, "you can only update your own mind maps")
		return
	}

	content, err := json.Marshal(mindMapContent{Nodes: req.Nodes, Edges: req.Edges})
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40091, "invalid mind map content")
		return
	}

	mindMap.Name = strings.TrimSpace(req.Name)
	mindMap.Content = string(content)
	if req.IsPublic != nil {
		mindMap.IsPublic = *req.IsPublic
	}
	if err := m.db.Save(&mindMap).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50104, "failed to update mind map")
		return
	}
	utils.Success(ctx, gin.H{"mind_map": mindMap})
}

// DeleteMindMap removes the caller's mind map.
func (m *MindMapController) DeleteMindMap(ctx *gin.Context) {
	mapID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40092, "invalid mind map id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var mindMap models.MindMap
	if err := m.db.First(&mindMap, mapID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40440, "mind map not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50105, "failed to load mind map")
		return
	}
	if mindMap.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40306, "you can only delete your own mind maps")
		return
	}
	if err := m.db.Delete(&mindMap).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50106, "failed to delete mind map")
		return
	}
	utils.Success(ctx, gin.H{"message": "mind map deleted"})
}

// ParseOutline converts an indented text outline into nodes and edges
// without persisting anything. Clients use it to preview generated maps.
func (m *MindMapController) ParseOutline(ctx *gin.Context) {
	var req struct {
		Outline string `json:"outline" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40093, "invalid request payload")
		return
	}
	nodes, edges := utils.ParseOutline(req.Outline)
	utils.Success(ctx, gin.H{"nodes": nodes, "edges": edges})
}
