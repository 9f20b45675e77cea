package workflow

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/google/uuid"
	"github.com/qiniu/x/xlog"
)

// FileStorage 保存候选人上传的文件。
type FileStorage interface {
	Save(xl *xlog.Logger, key string, body io.Reader, size int64, mimeType string) (url string, err error)
	Remove(xl *xlog.Logger, key string) error
}

var (
	documentMimeTypes = []string{"image/jpeg", "image/png", "image/tiff", "application/pdf"}
	contractMimeTypes = []string{
		"application/zip",
		"application/x-zip-compressed",
		"application/vnd.rar",
		"application/x-rar-compressed",
		"application/x-7z-compressed",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// FileUpload 已经接收到的上传文件。
type FileUpload struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

type AttachmentService struct {
	attachments store.AttachmentStore
	candidates  store.CandidateStore
	gate        *PhaseGate
	storage     FileStorage
	maxSize     int64
	now         func() time.Time
	xl          *xlog.Logger
}

func NewAttachmentService(s *store.Store, gate *PhaseGate, storage FileStorage, maxSizeMB int, xl *xlog.Logger) *AttachmentService {
	if xl == nil {
		xl = xlog.New("hiring-attachment")
	}
	return &AttachmentService{
		attachments: s.Attachments,
		candidates:  s.Candidates,
		gate:        gate,
		storage:     storage,
		maxSize:     int64(maxSizeMB) << 20,
		now:         time.Now,
		xl:          xl,
	}
}

func allowedMimeType(t model.AttachmentType, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, m := range documentMimeTypes {
		if m == mimeType {
			return true
		}
	}
	if t == model.AttachmentContract {
		for _, m := range contractMimeTypes {
			if m == mimeType {
				return true
			}
		}
	}
	return false
}

// Upload 上传或覆盖候选人某种类型的附件，旧文件会被删除。
func (s *AttachmentService) Upload(xl *xlog.Logger, candidateID string, t model.AttachmentType, upload FileUpload) (*model.AttachmentDo, error) {
	if xl == nil {
		xl = s.xl
	}
	if !t.Valid() {
		return nil, errors2.NewValidation("unknown attachment type " + string(t))
	}
	if upload.Size <= 0 || upload.Size > s.maxSize {
		return nil, errors2.NewValidation(fmt.Sprintf("file size must be between 1 byte and %d MB", s.maxSize>>20))
	}
	if !allowedMimeType(t, upload.MimeType) {
		return nil, errors2.NewValidation("file type " + upload.MimeType + " is not allowed")
	}
	candidate, err := s.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	if t.PhaseOne() {
		if err := s.gate.checkOpen(xl, candidate, model.LockPhase1); err != nil {
			return nil, err
		}
		if candidate.SubmittedAttachmentsAt != nil {
			return nil, errors2.NewConflict("attachments already submitted")
		}
	}

	existing, err := s.attachments.GetAttachment(xl, candidateID, t)
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}
	key := fmt.Sprintf("attachments/%s/%s-%s%s", candidateID, t, uuid.NewString(), strings.ToLower(path.Ext(upload.FileName)))
	url, err := s.storage.Save(xl, key, upload.Body, upload.Size, upload.MimeType)
	if err != nil {
		xl.Errorf("failed to store %s for candidate %s, error %v", t, candidateID, err)
		return nil, errors2.NewExternalService("failed to store file", err)
	}
	attachment := &model.AttachmentDo{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Type:        t,
		FileName:    path.Base(upload.FileName),
		MimeType:    upload.MimeType,
		Size:        upload.Size,
		StorageKey:  key,
		URL:         url,
		UploadedAt:  s.now(),
	}
	if existing != nil {
		attachment.ID = existing.ID
	}
	if err := s.attachments.PutAttachment(xl, attachment); err != nil {
		if removeErr := s.storage.Remove(xl, key); removeErr != nil {
			xl.Warnf("failed to remove orphan file %s, error %v", key, removeErr)
		}
		return nil, err
	}
	if existing != nil && existing.StorageKey != "" {
		if err := s.storage.Remove(xl, existing.StorageKey); err != nil {
			xl.Warnf("failed to remove replaced file %s, error %v", existing.StorageKey, err)
		}
	}
	return attachment, nil
}

func (s *AttachmentService) List(xl *xlog.Logger, candidateID string) ([]model.AttachmentDo, error) {
	if xl == nil {
		xl = s.xl
	}
	if _, err := s.candidates.GetCandidate(xl, candidateID); err != nil {
		return nil, notFound("candidate", err)
	}
	return s.attachments.ListAttachments(xl, candidateID)
}

func (s *AttachmentService) Get(xl *xlog.Logger, candidateID string, t model.AttachmentType) (*model.AttachmentDo, error) {
	if xl == nil {
		xl = s.xl
	}
	attachment, err := s.attachments.GetAttachment(xl, candidateID, t)
	if err != nil {
		return nil, notFound("attachment", err)
	}
	return attachment, nil
}

// Remove 删除附件记录及其文件。
func (s *AttachmentService) Remove(xl *xlog.Logger, candidateID string, t model.AttachmentType) error {
	if xl == nil {
		xl = s.xl
	}
	attachment, err := s.attachments.GetAttachment(xl, candidateID, t)
	if err != nil {
		return notFound("attachment", err)
	}
	if err := s.attachments.DeleteAttachment(xl, candidateID, t); err != nil {
		return err
	}
	if err := s.storage.Remove(xl, attachment.StorageKey); err != nil {
		xl.Warnf("failed to remove file %s, error %v", attachment.StorageKey, err)
	}
	return nil
}
