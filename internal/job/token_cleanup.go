package job

import (
	"context"
	"log"
	"time"

	"onlinebank/internal/repository"

	"gorm.io/gorm"
)

// TokenCleanupJob 过期令牌清理任务
type TokenCleanupJob struct {
	db        *gorm.DB
	tokenRepo *repository.TokenRepository
	stopCh    chan struct{}
	interval  time.Duration
	batchSize int
}

func NewTokenCleanupJob(db *gorm.DB) *TokenCleanupJob {
	return &TokenCleanupJob{
		db:        db,
		tokenRepo: repository.NewTokenRepository(db),
		stopCh:    make(chan struct{}),
		interval:  10 * time.Minute,
		batchSize: 500,
	}
}

func (j *TokenCleanupJob) Start(ctx context.Context) {
	log.Println("[TokenCleanupJob] 令牌清理任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[TokenCleanupJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[TokenCleanupJob] 任务停止")
			return
		case <-ticker.C:
			j.cleanExpiredTokens(ctx)
		}
	}
}

func (j *TokenCleanupJob) Stop() {
	close(j.stopCh)
}

func (j *TokenCleanupJob) cleanExpiredTokens(ctx context.Context) {
	deleted, err := j.tokenRepo.DeleteExpired(ctx, time.Now(), j.batchSize)
	if err != nil {
		log.Printf("[TokenCleanupJob] 清理过期令牌失败: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[TokenCleanupJob] 本次清理 %d 个过期令牌", deleted)
	}
}
