package service

import (
	"context"
	"fmt"
	"io"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/logger"
	"os"
	"path/filepath"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider stores answer media and returns the URL it is served from.
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(p.Config.LocalPath, filepath.FromSlash(key)))
}

func (p *LocalStorageProvider) GetURL(key string) string {
	return "/uploads/" + key
}

type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(key string) string {
	return "/" + p.Config.MinioBucket + "/" + key
}

type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key, oss.WithContext(ctx))
}

func (p *OSSStorageProvider) GetURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, key)
}

type StorageService struct {
	Provider StorageProvider
	MaxBytes int64
}

// NewStorageService picks the configured provider and falls back to local disk when a remote one
// cannot be built.
func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("MinIO provider unavailable, using local storage", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("OSS provider unavailable, using local storage", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}
	return &StorageService{Provider: provider, MaxBytes: util.MaxAnswerUploadBytes}
}

type mediaRule struct {
	extensions []string
	mimes      []string
}

// sniffing cannot tell some audio containers from video ones, hence the overlap
var mediaRules = map[model.QuestionType]mediaRule{
	model.QuestionAudioUpload: {util.AllowedAudioExtensions, []string{util.MimeAudio, "video/webm", "video/mp4", util.MimeOctetStream}},
	model.QuestionVideoUpload: {util.AllowedVideoExtensions, []string{util.MimeVideo, util.MimeOctetStream}},
	model.QuestionFileUpload:  {util.AllowedFileExtensions, []string{util.MimePDF, "application/", "text/plain", "image/"}},
}

// StoreAnswerFile checks an uploaded answer against the question's media rules and stores it.
func (s *StorageService) StoreAnswerFile(ctx context.Context, attemptID string, questionID uint, qt model.QuestionType, filename string, reader io.Reader, size int64) (string, error) {
	rule, ok := mediaRules[qt]
	if !ok {
		return "", util.ErrAnswerTypeMismatch
	}
	if s.MaxBytes > 0 && size > s.MaxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", util.ErrUnsupportedMedia, s.MaxBytes)
	}
	if !util.HasExtension(filename, rule.extensions) {
		return "", fmt.Errorf("%w: extension %q not allowed", util.ErrUnsupportedMedia, filepath.Ext(filename))
	}

	mime, content, err := util.DetectMimeType(reader)
	if err != nil {
		return "", util.NewPersistenceError("read upload", err)
	}
	if err := util.ValidateMimeType(mime, rule.mimes); err != nil {
		return "", fmt.Errorf("%w: content looks like %s", err, mime)
	}

	key := fmt.Sprintf("answers/%s/%d/%s%s", attemptID, questionID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Provider.Upload(ctx, key, content, size, mime)
	if err != nil {
		return "", util.NewPersistenceError("store upload", err)
	}
	return url, nil
}
