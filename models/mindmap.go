package models

import "time"

// MindMap stores a user's graph as serialized nodes and edges. Shared maps
// (IsPublic) are readable without ownership.
type MindMap struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Content   string    `gorm:"type:text" json:"content"` // JSON {"nodes": [...], "edges": [...]}
	IsPublic  bool      `gorm:"default:false" json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MindMapNode is one node of a parsed or client-built graph.
type MindMapNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// MindMapEdge connects a parent node to a child node.
type MindMapEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}
