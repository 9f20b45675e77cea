package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
	"github.com/qiniu/x/xlog"
)

// FileStorage 附件文件的存取，key 为 attachments/<candidateId>/<file>。
type FileStorage interface {
	Save(xl *xlog.Logger, key string, body io.Reader, size int64, mimeType string) (string, error)
	Remove(xl *xlog.Logger, key string) error
}

// NewFileStorage 按配置创建文件存储。
func NewFileStorage(conf *utils.Config, xl *xlog.Logger) (FileStorage, error) {
	switch conf.Storage.Provider {
	case "local":
		return NewLocalFileStorage(conf.Storage.LocalDir), nil
	case "qiniu":
		if conf.Storage.Qiniu == nil || conf.Storage.Qiniu.Bucket == "" {
			return nil, fmt.Errorf("qiniu storage is not configured")
		}
		return NewQiniuFileStorage(conf.QiniuKeyPair, conf.Storage.Qiniu), nil
	default:
		xl.Errorf("unsupported storage provider %s", conf.Storage.Provider)
		return nil, fmt.Errorf("unsupported storage provider")
	}
}

// LocalFileStorage 把文件保存在本地目录下，返回 /files/<key> 形式的URL。
type LocalFileStorage struct {
	dir string
}

func NewLocalFileStorage(dir string) *LocalFileStorage {
	return &LocalFileStorage{dir: dir}
}

func (s *LocalFileStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid file key %s", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *LocalFileStorage) Save(xl *xlog.Logger, key string, body io.Reader, size int64, mimeType string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", serviceError(errors2.ServerErrorStorageFail, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		xl.Errorf("failed to create directory for %s, error %v", key, err)
		return "", serviceError(errors2.ServerErrorStorageFail, err)
	}
	f, err := os.Create(p)
	if err != nil {
		xl.Errorf("failed to create file %s, error %v", p, err)
		return "", serviceError(errors2.ServerErrorStorageFail, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, io.LimitReader(body, size)); err != nil {
		xl.Errorf("failed to write file %s, error %v", p, err)
		os.Remove(p)
		return "", serviceError(errors2.ServerErrorStorageFail, err)
	}
	return "/files/" + key, nil
}

func (s *LocalFileStorage) Remove(xl *xlog.Logger, key string) error {
	p, err := s.path(key)
	if err != nil {
		return serviceError(errors2.ServerErrorStorageFail, err)
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return serviceError(errors2.ServerErrorStorageFail, err)
	}
	return nil
}

// Dir 本地文件的根目录，用于静态文件服务。
func (s *LocalFileStorage) Dir() string {
	return s.dir
}

// QiniuFileStorage 七牛对象存储。
type QiniuFileStorage struct {
	mac       *qbox.Mac
	bucket    string
	urlPrefix string
	cfg       storage.Config
}

func NewQiniuFileStorage(keys utils.QiniuKeyPair, conf *utils.QiniuStorageConfig) *QiniuFileStorage {
	cfg := storage.Config{}
	// 是否使用https域名
	cfg.UseHTTPS = true
	// 上传是否使用CDN上传加速
	cfg.UseCdnDomains = false
	return &QiniuFileStorage{
		mac:       qbox.NewMac(keys.AccessKey, keys.SecretKey),
		bucket:    conf.Bucket,
		urlPrefix: strings.TrimSuffix(conf.URLPrefix, "/"),
		cfg:       cfg,
	}
}

func (s *QiniuFileStorage) Save(xl *xlog.Logger, key string, body io.Reader, size int64, mimeType string) (string, error) {
	putPolicy := storage.PutPolicy{
		Scope: s.bucket + ":" + key,
	}
	upToken := putPolicy.UploadToken(s.mac)
	formUploader := storage.NewFormUploader(&s.cfg)
	ret := storage.PutRet{}
	extra := &storage.PutExtra{MimeType: mimeType}
	if err := formUploader.Put(context.Background(), &ret, upToken, key, body, size, extra); err != nil {
		xl.Errorf("file uploading failed err:%v", err)
		return "", serviceError(errors2.ServerErrorStorageFail, err)
	}
	xl.Infof("file %s uploaded, hash %s", ret.Key, ret.Hash)
	return s.urlPrefix + "/" + ret.Key, nil
}

func (s *QiniuFileStorage) Remove(xl *xlog.Logger, key string) error {
	manager := storage.NewBucketManager(s.mac, &s.cfg)
	if err := manager.Delete(s.bucket, key); err != nil {
		xl.Errorf("failed to delete %s from bucket %s, error %v", key, s.bucket, err)
		return serviceError(errors2.ServerErrorStorageFail, err)
	}
	return nil
}
