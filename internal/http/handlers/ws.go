package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Progress pushes status updates over a websocket so clients can avoid
// polling. The connection closes after the final update once the job is
// terminal.
func (a *App) Progress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.Registry.Get(r.Context(), id); err != nil {
		a.domainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		job, err := a.Registry.Get(r.Context(), id)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(serializeStatus(job)); err != nil {
			return
		}
		if job.Status.Terminal() {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
