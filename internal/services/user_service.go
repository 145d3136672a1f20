package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/auth"
	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=100"`
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Department string `json:"department" validate:"max=100"`
	Role       string `json:"role" validate:"omitempty,oneof=employee hr admin"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService 用户认证服务
type UserService struct {
	userRepo repository.UserRepository
	jwt      *auth.JWTService
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, jwt *auth.JWTService) *UserService {
	return &UserService{userRepo: userRepo, jwt: jwt}
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeConflict, "email already registered")
	}
	if existing, _ := s.userRepo.GetByEmployeeID(ctx, req.EmployeeID); existing != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeConflict, "employee ID already registered")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to hash password").WithCause(err)
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}
	user := &models.User{
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   hashed,
		Department: req.Department,
		Role:       role,
		IsActive:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to create user").WithCause(err)
	}

	logger.Info("user registered", zap.String("employee_id", user.EmployeeID))
	return user, nil
}

// Login 校验凭证并签发令牌
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeForbidden, "account is disabled")
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeUnauthorized, "invalid email or password")
	}

	token, err := s.jwt.GenerateToken(user.ID, user.EmployeeID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to issue token").WithCause(err)
	}

	now := time.Now()
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		logger.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	return &LoginResult{Token: token, User: user}, nil
}

// RefreshToken 刷新令牌
func (s *UserService) RefreshToken(tokenString string) (string, error) {
	token, err := s.jwt.RefreshToken(tokenString)
	if err != nil {
		return "", apperrors.NewBusinessError(apperrors.ErrCodeUnauthorized, "invalid or expired token").WithCause(err)
	}
	return token, nil
}

// Get 获取用户信息
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "user not found").WithCause(err)
	}
	return user, nil
}

// List 分页获取用户列表
func (s *UserService) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, page, limit)
}

// SetActive 启用或禁用用户
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "user not found").WithCause(err)
	}
	if err := s.userRepo.Update(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to update user").WithCause(err)
	}
	return nil
}
