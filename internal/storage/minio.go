package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hrhub/backend-go/internal/config"
)

// MinIOService MinIO对象存储服务，保存政策文档原件和表单附件
type MinIOService struct {
	client *minio.Client
	config config.ObjectStorageConfig
}

var globalMinIOService *MinIOService

// NewMinIOService 创建MinIO服务实例
func NewMinIOService() (*MinIOService, error) {
	if globalMinIOService != nil {
		return globalMinIOService, nil
	}

	cfg := config.AppConfig.Storage
	if cfg.Provider != "minio" && cfg.Provider != "s3" {
		return nil, fmt.Errorf("object storage provider is not minio/s3")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "hr-documents"
	}

	// minio.New 的 endpoint 不带协议前缀
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	service := &MinIOService{
		client: client,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			errStr := err.Error()
			// 并发启动时bucket可能已被其他实例创建
			if !strings.Contains(errStr, "BucketAlreadyExists") &&
				!strings.Contains(errStr, "BucketAlreadyOwnedByYou") {
				return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
			}
		} else {
			log.Printf("✅ Successfully created MinIO bucket: %s", cfg.Bucket)
		}
	}

	globalMinIOService = service
	return service, nil
}

// GetMinIOService 获取全局MinIO服务实例
func GetMinIOService() *MinIOService {
	return globalMinIOService
}

// HealthCheck 执行健康检查
func (s *MinIOService) HealthCheck() error {
	if s == nil || s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	_, err := s.client.ListBuckets(context.Background())
	return err
}

// UploadFile 上传文件
func (s *MinIOService) UploadFile(ctx context.Context, objectKey string, file io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	_, err := s.client.PutObject(ctx, s.config.Bucket, objectKey, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// DownloadFile 下载文件
func (s *MinIOService) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("minio client not initialized")
	}

	object, err := s.client.GetObject(ctx, s.config.Bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return object, nil
}

// DeleteFile 删除文件
func (s *MinIOService) DeleteFile(ctx context.Context, objectKey string) error {
	if s.client == nil {
		return fmt.Errorf("minio client not initialized")
	}
	return s.client.RemoveObject(ctx, s.config.Bucket, objectKey, minio.RemoveObjectOptions{})
}

// GetFileURL 获取文件访问URL（预签名）
func (s *MinIOService) GetFileURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	if expires == 0 {
		expires = 24 * time.Hour
	}

	url, err := s.client.PresignedGetObject(ctx, s.config.Bucket, objectKey, expires, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

// PolicyObjectKey 政策文档的存储路径
func PolicyObjectKey(policyID uint, filename string) string {
	return fmt.Sprintf("policies/%d/%s", policyID, filename)
}

// FormObjectKey 表单附件的存储路径
func FormObjectKey(formID uint, filename string) string {
	return fmt.Sprintf("forms/%d/%s", formID, filename)
}

// FileExists 检查文件是否存在
func (s *MinIOService) FileExists(ctx context.Context, objectKey string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("minio client not initialized")
	}

	_, err := s.client.StatObject(ctx, s.config.Bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
