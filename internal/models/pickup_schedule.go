package models

import "time"

const (
	ScheduleStatusPending   = "pending"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

type PickupSchedule struct {
	ID          string  `json:"id" db:"id"`
	BinID       string  `json:"bin_id" db:"bin_id"`
	RequestedBy string  `json:"requested_by" db:"requested_by"` // User ID
	ScheduledAt int64   `json:"scheduled_at" db:"scheduled_at"` // Unix timestamp
	Notes       *string `json:"notes,omitempty" db:"notes"`
	Status      string  `json:"status" db:"status"` // 'pending', 'completed', 'cancelled'
	CompletedAt *int64  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   int64   `json:"created_at" db:"created_at"`
	UpdatedAt   int64   `json:"updated_at" db:"updated_at"`
}

type PickupScheduleResponse struct {
	ID             string  `json:"id"`
	BinID          string  `json:"bin_id"`
	RequestedBy    string  `json:"requested_by"`
	ScheduledAtIso string  `json:"scheduled_at"`
	Notes          *string `json:"notes,omitempty"`
	Status         string  `json:"status"`
	CompletedAtIso *string `json:"completed_at,omitempty"`
	CreatedAtIso   string  `json:"created_at"`
	UpdatedAtIso   string  `json:"updated_at"`
}

// SchedulePickupRequest is the request body for POST /api/schedule-pickup.
// Date is YYYY-MM-DD and Time is HH:MM, both UTC.
type SchedulePickupRequest struct {
	BinID string  `json:"binId" validate:"required,bin_id"`
	Date  string  `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	Time  string  `json:"scheduledTime" validate:"required,datetime=15:04"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ScheduledAt combines Date and Time. Callers validate the request first.
func (r *SchedulePickupRequest) ScheduledAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, time.UTC)
}

type UpdateScheduleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

func (s *PickupSchedule) ToResponse() PickupScheduleResponse {
	return PickupScheduleResponse{
		ID:             s.ID,
		BinID:          s.BinID,
		RequestedBy:    s.RequestedBy,
		ScheduledAtIso: time.Unix(s.ScheduledAt, 0).UTC().Format(time.RFC3339),
		Notes:          s.Notes,
		Status:         s.Status,
		CompletedAtIso: isoPtr(s.CompletedAt),
		CreatedAtIso:   time.Unix(s.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAtIso:   time.Unix(s.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
}

func ToScheduleResponses(schedules []PickupSchedule) []PickupScheduleResponse {
	out := make([]PickupScheduleResponse, len(schedules))
	for i := range schedules {
		out[i] = schedules[i].ToResponse()
	}
	return out
}
