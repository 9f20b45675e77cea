package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// CandidateService 候选人信息的增删改查。
type CandidateService struct {
	candidateColl *mgo.Collection
	xl            *xlog.Logger
}

func NewCandidateService(database *mgo.Database, xl *xlog.Logger) *CandidateService {
	if xl == nil {
		xl = xlog.New("hiring-candidate-db")
	}
	return &CandidateService{
		candidateColl: database.C(dao.CollectionCandidate),
		xl:            xl,
	}
}

func (c *CandidateService) GetCandidate(xl *xlog.Logger, id string) (*model.CandidateDo, error) {
	return c.getCandidateByFields(xl, bson.M{"_id": id})
}

func (c *CandidateService) GetCandidateByNationalID(xl *xlog.Logger, nationalID string) (*model.CandidateDo, error) {
	return c.getCandidateByFields(xl, bson.M{"nationalIdNumber": nationalID})
}

func (c *CandidateService) getCandidateByFields(xl *xlog.Logger, fields bson.M) (*model.CandidateDo, error) {
	if xl == nil {
		xl = c.xl
	}
	candidate := model.CandidateDo{}
	err := c.candidateColl.Find(fields).One(&candidate)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("no such candidate for fields %v", fields)
		} else {
			xl.Errorf("failed to get candidate %v, error %v", fields, err)
		}
		return nil, mapErr(err)
	}
	return &candidate, nil
}

func (c *CandidateService) CreateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error {
	if xl == nil {
		xl = c.xl
	}
	if candidate.ID == "" {
		candidate.ID = bson.NewObjectId().Hex()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now()
	}
	candidate.UpdatedAt = candidate.CreatedAt
	err := c.candidateColl.Insert(candidate)
	if err != nil {
		xl.Errorf("failed to insert candidate %s, error %v", candidate.NationalIDNumber, err)
		return mapErr(err)
	}
	return nil
}

func (c *CandidateService) UpdateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error {
	if xl == nil {
		xl = c.xl
	}
	candidate.UpdatedAt = time.Now()
	err := c.candidateColl.UpdateId(candidate.ID, candidate)
	if err != nil {
		xl.Errorf("failed to update candidate %s, error %v", candidate.ID, err)
		return mapErr(err)
	}
	return nil
}

// StampCandidate 仅在 gate 仍为空时写入，用条件更新避免同一步骤被提交两次。
func (c *CandidateService) StampCandidate(xl *xlog.Logger, candidate *model.CandidateDo, gate string) error {
	if xl == nil {
		xl = c.xl
	}
	candidate.UpdatedAt = time.Now()
	err := c.candidateColl.Update(bson.M{"_id": candidate.ID, gate: nil}, candidate)
	if err == mgo.ErrNotFound {
		n, countErr := c.candidateColl.FindId(candidate.ID).Count()
		if countErr != nil {
			xl.Errorf("failed to check candidate %s, error %v", candidate.ID, countErr)
			return mapErr(countErr)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		xl.Infof("candidate %s: %s already set", candidate.ID, gate)
		return store.ErrConflict
	}
	if err != nil {
		xl.Errorf("failed to stamp %s on candidate %s, error %v", gate, candidate.ID, err)
		return mapErr(err)
	}
	return nil
}

func (c *CandidateService) ListCandidates(xl *xlog.Logger, query model.CandidateQuery) ([]model.CandidateDo, error) {
	if xl == nil {
		xl = c.xl
	}
	results := make([]model.CandidateDo, 0)
	err := c.candidateColl.Find(candidateFilter(query)).Sort("_id").All(&results)
	if err != nil {
		xl.Errorf("failed to list candidates, error %v", err)
		return nil, err
	}
	return results, nil
}

func (c *CandidateService) CountCandidates(xl *xlog.Logger, query model.CandidateQuery) (int, error) {
	if xl == nil {
		xl = c.xl
	}
	n, err := c.candidateColl.Find(candidateFilter(query)).Count()
	if err != nil {
		xl.Errorf("failed to count candidates, error %v", err)
		return 0, err
	}
	return n, nil
}

func candidateFilter(q model.CandidateQuery) bson.M {
	filter := bson.M{}
	if q.AdministrationID != "" {
		filter["administrationId"] = q.AdministrationID
	}
	if q.ChosenInterviewTimeSlotID != "" {
		filter["chosenInterviewTimeSlotId"] = q.ChosenInterviewTimeSlotID
	}
	if q.HasUser {
		filter["userId"] = bson.M{"$nin": []interface{}{"", nil}}
	}
	if q.JobTermsAccepted != nil {
		filter["jobTermsAccepted"] = *q.JobTermsAccepted
	}
	if q.JobOfferAccepted != nil {
		filter["jobOfferAccepted"] = *q.JobOfferAccepted
	}
	if q.InformationSubmitted {
		filter["submittedInformationAt"] = bson.M{"$ne": nil}
	}
	if q.AttachmentsSubmitted {
		filter["submittedAttachmentsAt"] = bson.M{"$ne": nil}
	}
	if q.SectorPreferencesSubmitted {
		filter["submittedSectorPreferencesAt"] = bson.M{"$ne": nil}
	}
	return filter
}
