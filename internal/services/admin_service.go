package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/database"
	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/knowledge"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
	"github.com/hrhub/backend-go/internal/storage"
)

// ComponentStatus 单个组件的健康状态
type ComponentStatus struct {
	Status string `json:"status"` // healthy | unhealthy | disabled
	Detail string `json:"detail,omitempty"`
}

// SystemStatus 系统整体状态
type SystemStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentStatus `json:"components"`
}

// BackupResult 备份结果
type BackupResult struct {
	FilePath string `json:"file_path"`
	Policies int    `json:"policies"`
	Forms    int    `json:"forms"`
	Users    int    `json:"users"`
	Queries  int    `json:"queries"`
}

type backupPayload struct {
	ExportedAt time.Time            `json:"exported_at"`
	Policies   []models.Policy      `json:"policies"`
	Forms      []models.Form        `json:"forms"`
	Users      []models.User        `json:"users"`
	Queries    []models.QueryRecord `json:"queries"`
}

// AdminService 系统管理服务
type AdminService struct {
	policyRepo repository.PolicyRepository
	formRepo   repository.FormRepository
	userRepo   repository.UserRepository
	queryRepo  repository.QueryRepository
	store      knowledge.VectorStore
	backupDir  string
}

// NewAdminService 创建管理服务
func NewAdminService(
	policyRepo repository.PolicyRepository,
	formRepo repository.FormRepository,
	userRepo repository.UserRepository,
	queryRepo repository.QueryRepository,
	store knowledge.VectorStore,
	backupDir string,
) *AdminService {
	if backupDir == "" {
		backupDir = "./backups"
	}
	return &AdminService{
		policyRepo: policyRepo,
		formRepo:   formRepo,
		userRepo:   userRepo,
		queryRepo:  queryRepo,
		store:      store,
		backupDir:  backupDir,
	}
}

// GetSystemStatus 汇总各依赖组件的健康状态
func (s *AdminService) GetSystemStatus(ctx context.Context) *SystemStatus {
	components := map[string]ComponentStatus{}

	components["database"] = s.checkDatabase(ctx)
	components["redis"] = s.checkRedis(ctx)
	components["vector_store"] = s.checkVectorStore()
	components["object_storage"] = s.checkObjectStorage()

	overall := "healthy"
	for _, c := range components {
		if c.Status == "unhealthy" {
			overall = "degraded"
			break
		}
	}

	return &SystemStatus{
		Status:     overall,
		Timestamp:  time.Now(),
		Components: components,
	}
}

func (s *AdminService) checkDatabase(ctx context.Context) ComponentStatus {
	if database.DB == nil {
		return ComponentStatus{Status: "unhealthy", Detail: "not initialized"}
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		return ComponentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	return ComponentStatus{Status: "healthy"}
}

func (s *AdminService) checkRedis(ctx context.Context) ComponentStatus {
	if database.RedisClient == nil {
		return ComponentStatus{Status: "disabled"}
	}
	if err := database.RedisClient.Ping(ctx).Err(); err != nil {
		return ComponentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	return ComponentStatus{Status: "healthy"}
}

func (s *AdminService) checkVectorStore() ComponentStatus {
	if s.store == nil {
		return ComponentStatus{Status: "unhealthy", Detail: "not initialized"}
	}
	if !s.store.Ready() {
		return ComponentStatus{Status: "unhealthy", Detail: "store not ready"}
	}
	return ComponentStatus{Status: "healthy"}
}

func (s *AdminService) checkObjectStorage() ComponentStatus {
	svc := storage.GetMinIOService()
	if svc == nil {
		return ComponentStatus{Status: "disabled"}
	}
	if err := svc.HealthCheck(); err != nil {
		return ComponentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	return ComponentStatus{Status: "healthy"}
}

// BackupKnowledgeBase 将政策和表单导出为JSON快照
func (s *AdminService) BackupKnowledgeBase(ctx context.Context) (*BackupResult, error) {
	policies, err := s.policyRepo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to export policies").WithCause(err)
	}
	forms, err := s.formRepo.List(ctx, "", false)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to export forms").WithCause(err)
	}
	// 密码字段序列化时已被排除
	users, _, err := s.userRepo.List(ctx, 1, 10000)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to export users").WithCause(err)
	}
	queries, err := s.queryRepo.Recent(ctx, 10000)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to export query records").WithCause(err)
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to create backup directory").WithCause(err)
	}

	payload := backupPayload{
		ExportedAt: time.Now().UTC(),
		Policies:   policies,
		Forms:      forms,
		Users:      users,
		Queries:    queries,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to serialize backup").WithCause(err)
	}

	filePath := filepath.Join(s.backupDir, fmt.Sprintf("knowledge_backup_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to write backup file").WithCause(err)
	}

	logger.Info("knowledge base backup written",
		zap.String("file", filePath),
		zap.Int("policies", len(policies)),
		zap.Int("forms", len(forms)))

	return &BackupResult{
		FilePath: filePath,
		Policies: len(policies),
		Forms:    len(forms),
		Users:    len(users),
		Queries:  len(queries),
	}, nil
}
