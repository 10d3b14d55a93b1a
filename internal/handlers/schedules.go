package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/validation"
	"wastebin-backend/pkg/utils"
)

func SchedulePickup(store ScheduleStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SchedulePickupRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		at, err := req.ScheduledAt()
		if err != nil {
			resp.Fail(w, r, apperr.Validation("Invalid pickup date or time"))
			return
		}

		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), store, principal, req.BinID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		now := time.Now().Unix()
		ps := &models.PickupSchedule{
			ID:          uuid.New().String(),
			BinID:       req.BinID,
			RequestedBy: principal.UserID,
			ScheduledAt: at.Unix(),
			Notes:       req.Notes,
			Status:      models.ScheduleStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.CreateSchedule(r.Context(), ps); err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().
			Str("schedule_id", ps.ID).
			Str("bin_id", ps.BinID).
			Time("scheduled_at", at).
			Msg("📅 pickup scheduled")
		utils.JSON(w, http.StatusCreated, ps.ToResponse())
	}
}

// ListSchedules returns every schedule to admins and the schedules of the
// caller's bins to everyone else.
func ListSchedules(store ScheduleStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetUserFromContext(r)

		var (
			schedules []models.PickupSchedule
			err       error
		)
		if principal.IsAdmin() {
			schedules, err = store.ListSchedules(r.Context())
		} else {
			schedules, err = store.ListSchedulesForOwner(r.Context(), principal.UserID)
		}
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToScheduleResponses(schedules))
	}
}

func ListBinSchedules(store ScheduleStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "binId")
		if err := validation.BinID(binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), store, principal, binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		schedules, err := store.ListSchedulesForBin(r.Context(), binID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToScheduleResponses(schedules))
	}
}

// UpdateScheduleStatus moves a pending schedule to completed or cancelled.
// Completion empties the bin in the same write.
func UpdateScheduleStatus(store ScheduleStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			resp.Fail(w, r, apperr.Validation("Invalid schedule ID"))
			return
		}
		var req models.UpdateScheduleStatusRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		schedule, err := store.GetSchedule(r.Context(), id)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), store, principal, schedule.BinID); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.ScheduleTransition(schedule.Status, req.Status); err != nil {
			resp.Fail(w, r, err)
			return
		}

		now := time.Now().Unix()
		var updated *models.PickupSchedule
		if req.Status == models.ScheduleStatusCompleted {
			updated, err = store.CompleteSchedule(r.Context(), id, now)
		} else {
			updated, err = store.SetScheduleStatus(r.Context(), id, req.Status, now)
		}
		if err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().
			Str("schedule_id", id).
			Str("bin_id", updated.BinID).
			Str("status", updated.Status).
			Msg("pickup schedule updated")
		utils.Success(w, updated.ToResponse())
	}
}
