package validator

import (
	"errors"
	"testing"
	"time"

	"opacbookings/pkg/logger"
	"opacbookings/pkg/model"
)

func TestValidateOpen(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())

	tests := []struct {
		name      string
		req       model.OpenSessionRequest
		wantField string
	}{
		{"valid", model.OpenSessionRequest{BiblioID: 1, PatronID: 2, PatronCategoryID: "PT"}, ""},
		{"missing biblio", model.OpenSessionRequest{PatronID: 2}, "biblio_id"},
		{"missing patron", model.OpenSessionRequest{BiblioID: 1}, "patron_id"},
		{"category too long", model.OpenSessionRequest{BiblioID: 1, PatronID: 2, PatronCategoryID: "WAYTOOLONGCAT"}, "patron_category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateOpen(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := model.BookingRequest{
		BiblioID: 1, PatronID: 2, PickupLibraryID: "CPL",
		StartDate: start, EndDate: start.Add(48 * time.Hour),
	}
	if err := v.ValidateRequest(&valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	inverted := valid
	inverted.EndDate = start.Add(-time.Hour)
	err := v.ValidateRequest(&inverted)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs[0].Field != "end_date" || verrs[0].Message != "end_date must be after start_date" {
		t.Errorf("unexpected error %+v", verrs[0])
	}
	if verrs.Details()["end_date"] == nil {
		t.Errorf("Details should carry end_date")
	}

	noPickup := valid
	noPickup.PickupLibraryID = ""
	if err := v.ValidateRequest(&noPickup); err == nil {
		t.Errorf("missing pickup library should fail")
	}
}
