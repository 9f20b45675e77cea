package model

import "time"

// InterviewTimeSlotDo 面试时间段，容量固定。
type InterviewTimeSlotDo struct {
	ID                     string    `json:"id" bson:"_id"`
	AdministrationID       string    `json:"administrationId" bson:"administrationId"`
	GoogleMapsLink         string    `json:"googleMapsLink" bson:"googleMapsLink"`
	LocationName           string    `json:"locationName" bson:"locationName"`
	StartDateTime          time.Time `json:"startDateTime" bson:"startDateTime"`
	EndDateTime            time.Time `json:"endDateTime" bson:"endDateTime"`
	MaxCandidatesCapacity  int       `json:"maxCandidatesCapacity" bson:"maxCandidatesCapacity"`
	CurrentCandidatesCount int       `json:"currentCandidatesCount" bson:"currentCandidatesCount"`
	CreatedAt              time.Time `json:"createdAt" bson:"createdAt"`
}

// Open reports whether the slot still takes bookings at now.
func (s InterviewTimeSlotDo) Open(now time.Time) bool {
	return s.CurrentCandidatesCount < s.MaxCandidatesCapacity && !s.EndDateTime.Before(now)
}

