package form

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

var ErrSlotWindow = fmt.Errorf("endDateTime must be after startDateTime")

type SlotBookingForm struct {
	InterviewTimeSlotID string `json:"interviewTimeSlotId"`
}

func (f *SlotBookingForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.InterviewTimeSlotID, validation.Required),
	)
}

// SlotCreateForm 创建面试时间段。
type SlotCreateForm struct {
	AdministrationID      string    `json:"administrationId"`
	GoogleMapsLink        string    `json:"googleMapsLink"`
	LocationName          string    `json:"locationName"`
	StartDateTime         time.Time `json:"startDateTime"`
	EndDateTime           time.Time `json:"endDateTime"`
	MaxCandidatesCapacity int       `json:"maxCandidatesCapacity"`
}

func (f *SlotCreateForm) Validate() error {
	err := validation.ValidateStruct(f,
		validation.Field(&f.AdministrationID, validation.Required),
		validation.Field(&f.GoogleMapsLink, is.URL),
		validation.Field(&f.LocationName, validation.Required, validation.Length(0, 200)),
		validation.Field(&f.StartDateTime, validation.Required),
		validation.Field(&f.EndDateTime, validation.Required),
		validation.Field(&f.MaxCandidatesCapacity, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return err
	}
	if !f.EndDateTime.After(f.StartDateTime) {
		return ErrSlotWindow
	}
	return nil
}

func (f *SlotCreateForm) ToModel() *model.InterviewTimeSlotDo {
	return &model.InterviewTimeSlotDo{
		AdministrationID:      f.AdministrationID,
		GoogleMapsLink:        f.GoogleMapsLink,
		LocationName:          f.LocationName,
		StartDateTime:         f.StartDateTime,
		EndDateTime:           f.EndDateTime,
		MaxCandidatesCapacity: f.MaxCandidatesCapacity,
	}
}
