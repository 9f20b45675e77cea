package db

import (
	"fmt"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/service/db/dao"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
)

// OpenStore builds the store selected by store_provider.
func OpenStore(conf *utils.Config, xl *xlog.Logger) (*store.Store, error) {
	switch conf.StoreProvider {
	case utils.StoreProviderMemory:
		return store.FromMemory(store.NewMemory()), nil
	case utils.StoreProviderMongo:
		if conf.Mongo == nil {
			return nil, fmt.Errorf("mongo is not configured")
		}
		return NewStore(*conf.Mongo, xl)
	}
	return nil, fmt.Errorf("unsupported store provider %s", conf.StoreProvider)
}

// NewStore dials mongo once and builds every collection-backed store on that session.
func NewStore(conf utils.MongoConfig, xl *xlog.Logger) (*store.Store, error) {
	if xl == nil {
		xl = xlog.New("hiring-mongo")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	mongoClient.SetMode(mgo.Strong, true)
	database := mongoClient.DB(conf.Database)
	if err := ensureIndexes(xl, database); err != nil {
		return nil, err
	}
	return &store.Store{
		Candidates:  NewCandidateService(database, xl),
		Preferences: NewPreferenceService(database, xl),
		Settings:    NewSettingService(database, xl),
		Slots:       NewInterviewSlotService(database, xl),
		Attachments: NewAttachmentService(database, xl),
		Catalog:     NewCatalogService(database, xl),
		Accounts:    NewAccountService(database, xl),
		SMSCodes:    NewSMSCodeService(database, xl),
		Actions:     NewActionService(database, xl),
	}, nil
}

func ensureIndexes(xl *xlog.Logger, database *mgo.Database) error {
	indexes := []struct {
		collection string
		index      mgo.Index
	}{
		{dao.CollectionCandidate, mgo.Index{Key: []string{"nationalIdNumber"}, Unique: true}},
		{dao.CollectionCandidate, mgo.Index{Key: []string{"chosenInterviewTimeSlotId"}}},
		{dao.CollectionAccount, mgo.Index{Key: []string{"username"}, Unique: true}},
		{dao.CollectionAccountToken, mgo.Index{Key: []string{"token"}}},
		{dao.CollectionSectorPreference, mgo.Index{Key: []string{"candidateId", "choice"}}},
		{dao.CollectionSchoolPreference, mgo.Index{Key: []string{"candidateId", "choice"}}},
		{dao.CollectionAttachment, mgo.Index{Key: []string{"candidateId", "type"}, Unique: true}},
		{dao.CollectionInterviewTimeSlot, mgo.Index{Key: []string{"administrationId", "endDateTime"}}},
		{dao.CollectionSMSCode, mgo.Index{Key: []string{"phone", "sendTime"}}},
	}
	for _, idx := range indexes {
		if err := database.C(idx.collection).EnsureIndex(idx.index); err != nil {
			xl.Errorf("failed to ensure index %v on %s, error %v", idx.index.Key, idx.collection, err)
			return err
		}
	}
	return nil
}

// mapErr turns mgo sentinel errors into store errors, and tags everything else as a mongo failure.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mgo.ErrNotFound:
		return store.ErrNotFound
	case mgo.IsDup(err):
		return store.ErrDuplicate
	}
	return &errors2.ServerError{Code: errors2.ServerErrorMongoOpFail, Summary: err.Error()}
}
