package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

// RealtimeController exposes the live event stream and room membership.
// Clients open one SSE stream, receive a connection id, and manage entry
// room membership through the join/leave endpoints.
type RealtimeController struct {
	hub *realtime.Hub
}

// NewRealtimeController creates a new RealtimeController instance.
func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// Stream opens a server-sent events stream. The connection automatically
// joins the caller's private user room so notifications arrive without an
// explicit join.
func (r *RealtimeController) Stream(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	client := realtime.NewClient(userID, 32)
	r.hub.Register(client)
	r.hub.Join(realtime.UserRoom(userID), client)
	defer r.hub.Disconnect(client)

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")
	ctx.Writer.Header().Set("X-Accel-Buffering", "no")

	// First frame tells the client its connection id for join/leave calls.
	ctx.SSEvent("connected", gin.H{"connection_id": client.ID()})
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev := <-client.Events():
			ctx.SSEvent(ev.Name, ev.Data)
			return true
		case <-client.Done():
			return false
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

// JoinRoom subscribes an open connection to an entry's room.
func (r *RealtimeController) JoinRoom(ctx *gin.Context) {
	var req struct {
		ConnectionID string `json:"connection_id" binding:"required"`
		EntryID      uint   `json:"entry_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	conn := r.hub.Get(req.ConnectionID)
	if conn == nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "connection not found")
		return
	}

	r.hub.Join(realtime.EntryRoom(req.EntryID), conn)
	utils.Success(ctx, gin.H{"room": realtime.EntryRoom(req.EntryID)})
}

// LeaveRoom unsubscribes an open connection from an entry's room.
func (r *RealtimeController) LeaveRoom(ctx *gin.Context) {
	var req struct {
		ConnectionID string `json:"connection_id" binding:"required"`
		EntryID      uint   `json:"entry_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	conn := r.hub.Get(req.ConnectionID)
	if conn == nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "connection not found")
		return
	}

	r.hub.Leave(realtime.EntryRoom(req.EntryID), conn)
	utils.Success(ctx, gin.H{"room": realtime.EntryRoom(req.EntryID)})
}
