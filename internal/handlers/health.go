package handlers

import (
	"net/http"

	"wastebin-backend/pkg/utils"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
	Identity string `json:"identity"`
}

// Health reports 500 when the table store or the identity service is
// unreachable.
func Health(db Pinger, auth HealthChecker, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := HealthResponse{Status: "ok", Message: "Server is running", Database: "ok", Identity: "ok"}

		if err := db.Ping(r.Context()); err != nil {
			resp.Log.Error().Err(err).Msg("❌ health: database unreachable")
			out.Status, out.Database = "error", "unreachable"
		}
		if err := auth.Health(r.Context()); err != nil {
			resp.Log.Error().Err(err).Msg("❌ health: identity service unreachable")
			out.Status, out.Identity = "error", "unreachable"
		}

		if out.Status != "ok" {
			out.Message = "Backend unavailable"
			utils.JSON(w, http.StatusInternalServerError, out)
			return
		}
		utils.Success(w, out)
	}
}
