package db

import (
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// AttachmentService 候选人附件记录，每个候选人每种类型一条。
type AttachmentService struct {
	attachmentColl *mgo.Collection
	xl             *xlog.Logger
}

func NewAttachmentService(database *mgo.Database, xl *xlog.Logger) *AttachmentService {
	if xl == nil {
		xl = xlog.New("hiring-attachment-db")
	}
	return &AttachmentService{
		attachmentColl: database.C(dao.CollectionAttachment),
		xl:             xl,
	}
}

func (a *AttachmentService) GetAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) (*model.AttachmentDo, error) {
	if xl == nil {
		xl = a.xl
	}
	attachment := model.AttachmentDo{}
	err := a.attachmentColl.Find(bson.M{"candidateId": candidateID, "type": attachmentType}).One(&attachment)
	if err != nil {
		if err != mgo.ErrNotFound {
			xl.Errorf("failed to get %s attachment of %s, error %v", attachmentType, candidateID, err)
		}
		return nil, mapErr(err)
	}
	return &attachment, nil
}

func (a *AttachmentService) ListAttachments(xl *xlog.Logger, candidateID string) ([]model.AttachmentDo, error) {
	if xl == nil {
		xl = a.xl
	}
	results := make([]model.AttachmentDo, 0)
	err := a.attachmentColl.Find(bson.M{"candidateId": candidateID}).Sort("type").All(&results)
	if err != nil {
		xl.Errorf("failed to list attachments of %s, error %v", candidateID, err)
		return nil, err
	}
	return results, nil
}

func (a *AttachmentService) PutAttachment(xl *xlog.Logger, attachment *model.AttachmentDo) error {
	if xl == nil {
		xl = a.xl
	}
	if attachment.ID == "" {
		attachment.ID = bson.NewObjectId().Hex()
	}
	// keep the _id of an existing record so that re-uploads overwrite in place.
	setFields := bson.M{
		"fileName":   attachment.FileName,
		"mimeType":   attachment.MimeType,
		"size":       attachment.Size,
		"storageKey": attachment.StorageKey,
		"url":        attachment.URL,
		"uploadedAt": attachment.UploadedAt,
	}
	_, err := a.attachmentColl.Upsert(
		bson.M{"candidateId": attachment.CandidateID, "type": attachment.Type},
		bson.M{"$set": setFields, "$setOnInsert": bson.M{"_id": attachment.ID}},
	)
	if err != nil {
		xl.Errorf("failed to upsert %s attachment of %s, error %v", attachment.Type, attachment.CandidateID, err)
		return err
	}
	return nil
}

func (a *AttachmentService) DeleteAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) error {
	if xl == nil {
		xl = a.xl
	}
	err := a.attachmentColl.Remove(bson.M{"candidateId": candidateID, "type": attachmentType})
	if err != nil {
		if err != mgo.ErrNotFound {
			xl.Errorf("failed to remove %s attachment of %s, error %v", attachmentType, candidateID, err)
		}
		return mapErr(err)
	}
	return nil
}
