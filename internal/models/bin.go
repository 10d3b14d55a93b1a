package models

import "time"

type Bin struct {
	BinID           string  `json:"bin_id" db:"bin_id"` // physical asset tag
	Location        string  `json:"location" db:"location"`
	WasteLevel      int     `json:"waste_level" db:"waste_level"`
	LastPickup      *int64  `json:"last_pickup,omitempty" db:"last_pickup"`   // Unix timestamp
	LastUpdated     *int64  `json:"last_updated,omitempty" db:"last_updated"` // Unix timestamp
	QRURL           *string `json:"qr_url,omitempty" db:"qr_url"`
	AssignedUserID  *string `json:"assigned_user_id,omitempty" db:"assigned_user_id"`
	ScheduledPickup *int64  `json:"scheduled_pickup,omitempty" db:"scheduled_pickup"` // Unix timestamp
	CreatedAt       int64   `json:"created_at" db:"created_at"`
}

// OwnerID returns the assigned user, or "" when the bin is unassigned.
func (b *Bin) OwnerID() string {
	if b.AssignedUserID == nil {
		return ""
	}
	return *b.AssignedUserID
}

// BinResponse is what we send to the client with ISO timestamps
type BinResponse struct {
	BinID              string  `json:"bin_id"`
	Location           string  `json:"location"`
	WasteLevel         int     `json:"waste_level"`
	LastPickupIso      *string `json:"last_pickup,omitempty"`
	LastUpdatedIso     *string `json:"last_updated,omitempty"`
	QRURL              *string `json:"qr_url,omitempty"`
	AssignedUserID     *string `json:"assigned_user_id"`
	ScheduledPickupIso *string `json:"scheduled_pickup,omitempty"`
}

// CreateBinRequest is the request body for POST /api/bins
type CreateBinRequest struct {
	BinID      string  `json:"binId" validate:"required,bin_id"`
	Location   string  `json:"location" validate:"required,max=500"`
	WasteLevel *int    `json:"wasteLevel,omitempty" validate:"omitempty,gte=0,lte=100"`
	QRURL      *string `json:"qrUrl,omitempty" validate:"omitempty,url"`
}

// UpdateBinRequest is the request body for PATCH /api/bins/:binId
type UpdateBinRequest struct {
	Location *string `json:"location,omitempty" validate:"omitempty,min=1,max=500"`
	QRURL    *string `json:"qrUrl,omitempty" validate:"omitempty,url"`
}

// UpdateWasteLevelRequest is the request body for POST /api/update-waste-level.
// Level is a pointer so a missing field is distinguishable from 0.
type UpdateWasteLevelRequest struct {
	BinID string `json:"binId" validate:"required,bin_id"`
	Level *int   `json:"level" validate:"required,gte=0,lte=100"`
}

func isoPtr(ts *int64) *string {
	if ts == nil {
		return nil
	}
	iso := time.Unix(*ts, 0).UTC().Format(time.RFC3339)
	return &iso
}

// ToBinResponse converts a Bin to BinResponse
func (b *Bin) ToBinResponse() BinResponse {
	return BinResponse{
		BinID:              b.BinID,
		Location:           b.Location,
		WasteLevel:         b.WasteLevel,
		LastPickupIso:      isoPtr(b.LastPickup),
		LastUpdatedIso:     isoPtr(b.LastUpdated),
		QRURL:              b.QRURL,
		AssignedUserID:     b.AssignedUserID,
		ScheduledPickupIso: isoPtr(b.ScheduledPickup),
	}
}

func ToBinResponses(bins []Bin) []BinResponse {
	responses := make([]BinResponse, len(bins))
	for i := range bins {
		responses[i] = bins[i].ToBinResponse()
	}
	return responses
}
