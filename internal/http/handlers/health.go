package handlers

import (
	"net/http"
)

// Health reports process liveness. It intentionally does not touch the job
// store; a wedged store shows up in request errors, not in liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
