package db

import (
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// PreferenceService 候选人志愿（sector / school）的存储。
type PreferenceService struct {
	sectorColl *mgo.Collection
	schoolColl *mgo.Collection
	xl         *xlog.Logger
}

func NewPreferenceService(database *mgo.Database, xl *xlog.Logger) *PreferenceService {
	if xl == nil {
		xl = xlog.New("hiring-preference-db")
	}
	return &PreferenceService{
		sectorColl: database.C(dao.CollectionSectorPreference),
		schoolColl: database.C(dao.CollectionSchoolPreference),
		xl:         xl,
	}
}

func (p *PreferenceService) coll(kind model.PreferenceKind) *mgo.Collection {
	if kind == model.PreferenceKindSchool {
		return p.schoolColl
	}
	return p.sectorColl
}

func (p *PreferenceService) ListPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string) ([]model.PreferenceDo, error) {
	if xl == nil {
		xl = p.xl
	}
	results := make([]model.PreferenceDo, 0)
	err := p.coll(kind).Find(bson.M{"candidateId": candidateID}).Sort("choice").All(&results)
	if err != nil {
		xl.Errorf("failed to list %s preferences of %s, error %v", kind, candidateID, err)
		return nil, err
	}
	return results, nil
}

func (p *PreferenceService) CreatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error {
	if xl == nil {
		xl = p.xl
	}
	err := p.coll(preference.Kind).Insert(preference)
	if err != nil {
		xl.Errorf("failed to insert %s preference %s, error %v", preference.Kind, preference.ID, err)
		return mapErr(err)
	}
	return nil
}

func (p *PreferenceService) UpdatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error {
	if xl == nil {
		xl = p.xl
	}
	err := p.coll(preference.Kind).UpdateId(preference.ID, preference)
	if err != nil {
		xl.Errorf("failed to update %s preference %s, error %v", preference.Kind, preference.ID, err)
		return mapErr(err)
	}
	return nil
}

func (p *PreferenceService) DeletePreferences(xl *xlog.Logger, kind model.PreferenceKind, ids []string) error {
	if xl == nil {
		xl = p.xl
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := p.coll(kind).RemoveAll(bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		xl.Errorf("failed to remove %s preferences %v, error %v", kind, ids, err)
		return err
	}
	return nil
}
