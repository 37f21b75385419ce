package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/utils"
)

const (
	EventExpensesUpdated = "expenses_updated"
	EventInsightsUpdated = "insights_updated"
)

// Notifier pushes refresh signals to a user's open sessions.
type Notifier interface {
	Notify(userID string, event string)
}

type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024

	// Keep-alive for hosted proxies that drop idle connections
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		utils.LogWebSocket("Connected", sessionUser(s))
	})

	m.HandleDisconnect(func(s *melody.Session) {
		utils.LogWebSocket("Disconnected", sessionUser(s))
	})

	m.HandleError(func(s *melody.Session, err error) {
		utils.SafeError("[WS] %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades an authenticated request and tags the session with the
// user id.
func (h *WSHandler) HandleWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	keys := map[string]interface{}{"user_id": userID}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		utils.SafeError("[WS] Failed to upgrade websocket: %v", err)
	}
}

// Notify sends {"type": event} to every session of the user.
func (h *WSHandler) Notify(userID string, event string) {
	msg, err := json.Marshal(gin.H{"type": event})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		return sessionUser(s) == userID
	})
	if err != nil {
		utils.SafeWarn("[WS] Error notifying user %s: %v", utils.MaskID(userID), err)
	}
}

func (h *WSHandler) Close() error {
	return h.M.Close()
}

func sessionUser(s *melody.Session) string {
	v, ok := s.Get("user_id")
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
