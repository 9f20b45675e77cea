package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// InterviewSlotService 面试时间段及其已预约人数。
type InterviewSlotService struct {
	slotColl *mgo.Collection
	xl       *xlog.Logger
}

func NewInterviewSlotService(database *mgo.Database, xl *xlog.Logger) *InterviewSlotService {
	if xl == nil {
		xl = xlog.New("hiring-interview-slot-db")
	}
	return &InterviewSlotService{
		slotColl: database.C(dao.CollectionInterviewTimeSlot),
		xl:       xl,
	}
}

func (s *InterviewSlotService) GetSlot(xl *xlog.Logger, id string) (*model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = s.xl
	}
	slot := model.InterviewTimeSlotDo{}
	err := s.slotColl.FindId(id).One(&slot)
	if err != nil {
		if err != mgo.ErrNotFound {
			xl.Errorf("failed to get interview slot %s, error %v", id, err)
		}
		return nil, mapErr(err)
	}
	return &slot, nil
}

func (s *InterviewSlotService) CreateSlot(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error {
	if xl == nil {
		xl = s.xl
	}
	if slot.ID == "" {
		slot.ID = bson.NewObjectId().Hex()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now()
	}
	err := s.slotColl.Insert(slot)
	if err != nil {
		xl.Errorf("failed to insert interview slot, error %v", err)
		return mapErr(err)
	}
	return nil
}

func (s *InterviewSlotService) ListSlots(xl *xlog.Logger) ([]model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = s.xl
	}
	results := make([]model.InterviewTimeSlotDo, 0)
	err := s.slotColl.Find(nil).Sort("startDateTime", "_id").All(&results)
	if err != nil {
		xl.Errorf("failed to list interview slots, error %v", err)
		return nil, err
	}
	return results, nil
}

func (s *InterviewSlotService) ListOpenSlots(xl *xlog.Logger, administrationID string, now time.Time) ([]model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = s.xl
	}
	filter := openSlotFilter(now)
	filter["administrationId"] = administrationID
	results := make([]model.InterviewTimeSlotDo, 0)
	err := s.slotColl.Find(filter).Sort("startDateTime", "_id").All(&results)
	if err != nil {
		xl.Errorf("failed to list open slots of administration %s, error %v", administrationID, err)
		return nil, err
	}
	return results, nil
}

func (s *InterviewSlotService) AddSlotCount(xl *xlog.Logger, id string, delta int) error {
	if xl == nil {
		xl = s.xl
	}
	err := s.slotColl.UpdateId(id, bson.M{"$inc": bson.M{"currentCandidatesCount": delta}})
	if err != nil {
		xl.Errorf("failed to change count of slot %s by %d, error %v", id, delta, err)
		return mapErr(err)
	}
	return nil
}

// TryReserveSeat 仅当时间段未满且未过期时原子地增加人数。
func (s *InterviewSlotService) TryReserveSeat(xl *xlog.Logger, id string, now time.Time) (bool, error) {
	if xl == nil {
		xl = s.xl
	}
	filter := openSlotFilter(now)
	filter["_id"] = id
	err := s.slotColl.Update(filter, bson.M{"$inc": bson.M{"currentCandidatesCount": 1}})
	if err == nil {
		return true, nil
	}
	if err != mgo.ErrNotFound {
		xl.Errorf("failed to reserve a seat in slot %s, error %v", id, err)
		return false, err
	}
	// no match: either the slot is missing or it is closed.
	if _, err := s.GetSlot(xl, id); err != nil {
		return false, err
	}
	return false, nil
}

func openSlotFilter(now time.Time) bson.M {
	return bson.M{
		"endDateTime": bson.M{"$gte": now},
		"$expr": bson.M{
			"$lt": []interface{}{"$currentCandidatesCount", "$maxCandidatesCapacity"},
		},
	}
}
