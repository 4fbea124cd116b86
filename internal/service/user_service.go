package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onlinebank/internal/config"
	"onlinebank/internal/model"
	"onlinebank/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("用户不存在")
	ErrBadPassword   = errors.New("密码错误")
	ErrEmailOccupied = errors.New("邮箱已被注册")
)

type UserService struct {
	db        *gorm.DB
	cfg       *config.Config
	userRepo  *repository.UserRepository
	tokenRepo *repository.TokenRepository
}

func NewUserService(db *gorm.DB, cfg *config.Config) *UserService {
	return &UserService{
		db:        db,
		cfg:       cfg,
		userRepo:  repository.NewUserRepository(db),
		tokenRepo: repository.NewTokenRepository(db),
	}
}

type RegisterRequest struct {
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Password   string
	Country    string
	City       string
}

// Register 注册用户并显式签发令牌
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*model.User, *model.AuthToken, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &model.User{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Email:      req.Email,
		Password:   string(hash),
		Country:    req.Country,
		City:       req.City,
		IsActive:   true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return nil, nil, ErrEmailOccupied
		}
		return nil, nil, err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Authenticate 校验邮箱密码，返回有效令牌（没有则签发新令牌）
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.AuthToken, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadPassword
	}

	token, err := s.tokenRepo.GetValidByUserID(ctx, user.ID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, repository.ErrTokenNotFound) {
		return nil, err
	}
	return s.issueToken(ctx, user.ID)
}

// ResolveToken 令牌换用户，认证中间件使用
func (s *UserService) ResolveToken(ctx context.Context, key string) (*model.User, error) {
	token, err := s.tokenRepo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Deactivate 注销用户：软删除并吊销全部令牌
func (s *UserService) Deactivate(ctx context.Context, userID int64) error {
	if err := s.userRepo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.tokenRepo.DeleteByUserID(ctx, userID)
}

func (s *UserService) issueToken(ctx context.Context, userID int64) (*model.AuthToken, error) {
	ttl := time.Duration(s.cfg.Business.TokenTTLHours) * time.Hour
	token := &model.AuthToken{
		Key:       uuid.NewString(),
		UserID:    userID,
		ExpiredAt: time.Now().Add(ttl),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("签发令牌失败: %w", err)
	}
	return token, nil
}
