package validation

import (
	"strings"
	"testing"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestWasteLevelRange(t *testing.T) {
	for _, level := range []int{0, 1, 50, 99, 100} {
		if err := WasteLevel(level); err != nil {
			t.Errorf("WasteLevel(%d) = %v", level, err)
		}
	}
	for _, level := range []int{-1, 101, -100, 1000} {
		if err := WasteLevel(level); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("WasteLevel(%d) = %v, want validation error", level, err)
		}
	}
}

func TestUpdateWasteLevelRequest(t *testing.T) {
	cases := []struct {
		name string
		req  models.UpdateWasteLevelRequest
		ok   bool
		msg  string
	}{
		{"zero level", models.UpdateWasteLevelRequest{BinID: "BIN-1", Level: intPtr(0)}, true, ""},
		{"full", models.UpdateWasteLevelRequest{BinID: "BIN-1", Level: intPtr(100)}, true, ""},
		{"missing level", models.UpdateWasteLevelRequest{BinID: "BIN-1"}, false, "level is required"},
		{"too high", models.UpdateWasteLevelRequest{BinID: "BIN-1", Level: intPtr(101)}, false, "between 0 and 100"},
		{"negative", models.UpdateWasteLevelRequest{BinID: "BIN-1", Level: intPtr(-5)}, false, "between 0 and 100"},
		{"bad id", models.UpdateWasteLevelRequest{BinID: "../etc", Level: intPtr(10)}, false, "binId must be"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(&tc.req)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if !strings.Contains(apperr.PublicMessage(err), tc.msg) {
				t.Fatalf("message %q does not contain %q", apperr.PublicMessage(err), tc.msg)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	if err := Password("pw12345", DefaultPasswordMinLength); err == nil {
		t.Error("7 characters accepted with the default minimum")
	}
	if err := Password("pw123456", DefaultPasswordMinLength); err != nil {
		t.Errorf("8 characters rejected: %v", err)
	}
	if err := Password("", 6); err == nil {
		t.Error("empty password accepted")
	}
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"a@x.com", "first.last@bins.example.org"} {
		if err := Email(ok); err != nil {
			t.Errorf("Email(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "plain", "a@", "Alice <a@x.com>", "a@localhost"} {
		if err := Email(bad); err == nil {
			t.Errorf("Email(%q) accepted", bad)
		}
	}
}

func TestRoleAndStatusEnums(t *testing.T) {
	if err := Role("admin"); err != nil {
		t.Error(err)
	}
	if err := Role("user"); err != nil {
		t.Error("legacy role rejected")
	}
	if err := Role("superuser"); err == nil {
		t.Error("unknown role accepted")
	}
	if err := TransactionStatus("refunded"); err == nil {
		t.Error("unknown transaction status accepted")
	}
	if err := ScheduleStatus("cancelled"); err != nil {
		t.Error(err)
	}
}

func TestScheduleTransition(t *testing.T) {
	if err := ScheduleTransition("pending", "completed"); err != nil {
		t.Errorf("pending->completed: %v", err)
	}
	if err := ScheduleTransition("pending", "cancelled"); err != nil {
		t.Errorf("pending->cancelled: %v", err)
	}
	if err := ScheduleTransition("completed", "pending"); err == nil {
		t.Error("completed schedules must be final")
	}
	if err := ScheduleTransition("pending", "pending"); err == nil {
		t.Error("no-op transition accepted")
	}
}

func TestSchedulePickupRequest(t *testing.T) {
	req := models.SchedulePickupRequest{BinID: "BIN-1", Date: "2026-11-02", Time: "25:00"}
	if err := Struct(&req); err == nil {
		t.Fatal("invalid time accepted")
	}
	req.Time = "08:30"
	if err := Struct(&req); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
