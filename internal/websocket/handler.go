package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a hub client. The
// optional ?child= query parameter limits events to one child.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // home LAN devices connect from any origin
		})
		if err != nil {
			hub.logger.Warn("accept websocket", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, r.URL.Query().Get("child")).Run(r.Context())
	}
}
