package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-chat/config"
	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
	"github.com/mossy-p/webrtc-chat/internal/relay"
)

// CreateRoom normalizes a room name and returns its relay channel and share link (requires authentication)
func CreateRoom(public config.PublicConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		room := chat.NormalizeRoomName(req.Name)
		slog.Info("room link created", "room", room, "user", c.GetString("user_id"))

		c.JSON(http.StatusCreated, models.CreateRoomResponse{
			Room:    room,
			Channel: chat.GetChannelRoom(room),
			Link:    chat.BuildRoomLink(public.Origin, public.Path, room),
		})
	}
}

// GetRoom reports how many members a room has (public)
func GetRoom(hub *relay.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := chat.NormalizeRoomName(c.Param("room"))
		channel := chat.GetChannelRoom(room)
		count := hub.MemberCount(channel)

		c.JSON(http.StatusOK, models.RoomInfo{
			Room:        room,
			Channel:     channel,
			MemberCount: count,
			NextOffers:  chat.IsOfferer(count + 1),
		})
	}
}

// RoomHistory renders the stored chat of a room as an HTML fragment (public).
// Lines sent by the client named in ?clientId= render as own messages
func RoomHistory(history relay.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := chat.GetChannelRoom(chat.NormalizeRoomName(c.Param("room")))
		viewer := c.Query("clientId")

		entries, err := history.Recent(c.Request.Context(), channel)
		if err != nil {
			slog.Error("failed to read history", "room", channel, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history"})
			return
		}

		var fragment []byte
		for _, e := range entries {
			node := chat.CreateChatMessageElement(e.User, e.Text, viewer != "" && e.ClientID == viewer)
			rendered, err := chat.RenderNode(node)
			if err != nil {
				slog.Error("failed to render history", "room", channel, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render history"})
				return
			}
			fragment = append(fragment, rendered...)
		}

		c.Data(http.StatusOK, "text/html; charset=utf-8", fragment)
	}
}

// ClearHistory deletes the stored chat of a room (requires authentication)
func ClearHistory(history relay.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := chat.GetChannelRoom(chat.NormalizeRoomName(c.Param("room")))

		if err := history.Clear(c.Request.Context(), channel); err != nil {
			slog.Error("failed to clear history", "room", channel, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
			return
		}

		slog.Info("history cleared", "room", channel, "user", c.GetString("user_id"))
		c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
	}
}
