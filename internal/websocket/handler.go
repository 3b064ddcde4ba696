package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/anirpro14/tidykitty/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and subscribes them to the caller's family feed. It must run
// behind the auth middleware.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if ac.FamilyID == "" {
			http.Error(w, "join a family first", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "family_id", ac.FamilyID, "user_id", ac.UserID)
		client := NewClient(hub, conn, ac.FamilyID, ac.UserID)
		client.Run(r.Context())
		logger.Debug("websocket disconnected", "family_id", ac.FamilyID, "user_id", ac.UserID)
	}
}
