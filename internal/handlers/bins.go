package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/validation"
	"wastebin-backend/pkg/utils"
)

// Bins above this level are logged as due for collection.
const fullThreshold = 80

type AssignBinRequest struct {
	BinID  string `json:"binId" validate:"required,bin_id"`
	UserID string `json:"userId" validate:"required"`
}

type AssignBinByEmailRequest struct {
	BinID string `json:"binId" validate:"required,bin_id"`
	Email string `json:"email" validate:"required,email"`
}

type UnassignBinRequest struct {
	BinID string `json:"binId" validate:"required,bin_id"`
}

type BinMessageResponse struct {
	Message string             `json:"message"`
	Bin     models.BinResponse `json:"bin"`
}

type binGetter interface {
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
}

// authorizeBin fetches a bin and runs the ownership check. A missing bin
// is reported as not found before ownership is considered.
func authorizeBin(ctx context.Context, bins binGetter, p middleware.Principal, binID string) (*models.Bin, error) {
	bin, err := bins.GetBin(ctx, binID)
	if err != nil {
		return nil, err
	}
	if err := middleware.Authorize(p, bin.OwnerID()); err != nil {
		return nil, err
	}
	return bin, nil
}

func GetBin(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "binId")
		if err := validation.BinID(binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		bin, err := bins.GetBin(r.Context(), binID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, map[string]models.BinResponse{"bin": bin.ToBinResponse()})
	}
}

func ListBins(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := bins.ListBins(r.Context())
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToBinResponses(all))
	}
}

func CreateBin(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBinRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		now := time.Now().Unix()
		bin := &models.Bin{
			BinID:       req.BinID,
			Location:    strings.TrimSpace(req.Location),
			QRURL:       req.QRURL,
			LastUpdated: &now,
			CreatedAt:   now,
		}
		if req.WasteLevel != nil {
			bin.WasteLevel = *req.WasteLevel
		}
		if err := bins.CreateBin(r.Context(), bin); err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().Str("bin_id", bin.BinID).Msg("🗑️ bin created")
		utils.JSON(w, http.StatusCreated, bin.ToBinResponse())
	}
}

// UpdateBin changes a bin's location or QR URL. Owner or admin.
func UpdateBin(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "binId")
		if err := validation.BinID(binID); err != nil {
			resp.Fail(w, r, err)
			return
		}
		var req models.UpdateBinRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if req.Location == nil && req.QRURL == nil {
			resp.Fail(w, r, apperr.Validation("Nothing to update"))
			return
		}

		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), bins, principal, binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		updated, err := bins.UpdateBinDetails(r.Context(), binID, req.Location, req.QRURL)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, updated.ToBinResponse())
	}
}

func DeleteBin(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "binId")
		if err := validation.BinID(binID); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := bins.DeleteBin(r.Context(), binID); err != nil {
			resp.Fail(w, r, err)
			return
		}
		resp.Log.Info().Str("bin_id", binID).Msg("🗑️ bin deleted")
		utils.Success(w, map[string]string{"message": "Bin deleted"})
	}
}

// UpdateWasteLevel records a sensor reading. The level is rejected before
// any write unless it is within 0-100.
func UpdateWasteLevel(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateWasteLevelRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		current, err := bins.UpdateWasteLevel(r.Context(), req.BinID, *req.Level, time.Now().Unix())
		if err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().Str("bin_id", req.BinID).Int("level", current).Msg("bin fill level")
		if current > fullThreshold {
			resp.Log.Warn().Str("bin_id", req.BinID).Int("level", current).Msg("⚠️ bin is over 80% full, schedule a collection")
		}

		utils.Success(w, map[string]interface{}{
			"message":      "Waste level updated",
			"currentLevel": current,
		})
	}
}

// GetAssignedBins lists the caller's bins.
func GetAssignedBins(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetUserFromContext(r)
		owned, err := bins.ListBinsAssignedTo(r.Context(), principal.UserID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToBinResponses(owned))
	}
}

func AssignBin(bins BinStore, users UserStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignBinRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		user, err := users.GetUser(r.Context(), req.UserID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		assign(w, r, bins, resp, req.BinID, user)
	}
}

func AssignBinByEmail(bins BinStore, users UserStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignBinByEmailRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		user, err := users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		assign(w, r, bins, resp, req.BinID, user)
	}
}

func assign(w http.ResponseWriter, r *http.Request, bins BinStore, resp utils.Responder, binID string, user *models.User) {
	bin, err := bins.AssignBin(r.Context(), binID, &user.ID)
	if err != nil {
		resp.Fail(w, r, err)
		return
	}
	resp.Log.Info().Str("bin_id", binID).Str("user_id", user.ID).Msg("📌 bin assigned")
	utils.Success(w, BinMessageResponse{Message: "Bin assigned to " + user.Email, Bin: bin.ToBinResponse()})
}

func UnassignBin(bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UnassignBinRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		bin, err := bins.AssignBin(r.Context(), req.BinID, nil)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		resp.Log.Info().Str("bin_id", req.BinID).Msg("bin unassigned")
		utils.Success(w, BinMessageResponse{Message: "Bin unassigned", Bin: bin.ToBinResponse()})
	}
}
