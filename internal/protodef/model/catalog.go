package model

import "time"

type AdministrationDo struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

type JobPositionDo struct {
	ID               string    `json:"id" bson:"_id"`
	Title            string    `json:"title" bson:"title"`
	Description      string    `json:"description" bson:"description"`
	Code             string    `json:"code" bson:"code"`
	AdministrationID string    `json:"administrationId" bson:"administrationId"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
}

// SectorDo 一个 sector，JobPositionIDs 为可以选择它的职位。
type SectorDo struct {
	ID               string   `json:"id" bson:"_id"`
	Name             string   `json:"name" bson:"name"`
	AdministrationID string   `json:"administrationId" bson:"administrationId"`
	JobPositionIDs   []string `json:"jobPositionIds" bson:"jobPositionIds"`
}

func (s SectorDo) OpenTo(jobPositionID string) bool {
	return containsID(s.JobPositionIDs, jobPositionID)
}

type SchoolDo struct {
	ID                       string   `json:"id" bson:"_id"`
	Name                     string   `json:"name" bson:"name"`
	SectorID                 string   `json:"sectorId" bson:"sectorId"`
	SchoolManagerName        string   `json:"schoolManagerName" bson:"schoolManagerName"`
	SchoolManagerPhoneNumber string   `json:"schoolManagerPhoneNumber" bson:"schoolManagerPhoneNumber"`
	JobPositionIDs           []string `json:"jobPositionIds" bson:"jobPositionIds"`
}

func (s SchoolDo) OpenTo(jobPositionID string) bool {
	return containsID(s.JobPositionIDs, jobPositionID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
