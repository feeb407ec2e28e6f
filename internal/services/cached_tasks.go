package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-api/backend/internal/cache"
	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// CachedTaskService serves List from redis and drops the owner's entry after
// every successful mutation. Entries carry the owner's version counter as read
// before the store query; a mutation bumps the counter, so a list filled
// concurrently with it is never served. Cache failures are logged and
// otherwise ignored.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
	breaker     *cache.CircuitBreaker
	ttl         time.Duration
	logger      *logrus.Logger
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache, breaker *cache.CircuitBreaker, ttl time.Duration, logger *logrus.Logger) *CachedTaskService {
	if breaker == nil {
		breaker = cache.NewCircuitBreaker(nil)
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		breaker:     breaker,
		ttl:         ttl,
		logger:      logging.OrDiscard(logger),
	}
}

type cachedTaskList struct {
	Version int64    `json:"version"`
	List    TaskList `json:"list"`
}

func taskListKey(userID uuid.UUID) string {
	return fmt.Sprintf("tasks:user:%s", userID.String())
}

func taskListVersionKey(userID uuid.UUID) string {
	return taskListKey(userID) + ":v"
}

func (s *CachedTaskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	task, err := s.taskService.Create(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) List(ctx context.Context, userID uuid.UUID) (*TaskList, error) {
	if userID == uuid.Nil {
		return s.taskService.List(ctx, userID)
	}
	key := taskListKey(userID)

	var (
		version   int64
		versioned bool
		cached    cachedTaskList
		hit       bool
	)
	readErr := s.breaker.Execute(func() error {
		var err error
		version, err = s.cache.Version(ctx, taskListVersionKey(userID))
		if err != nil {
			return err
		}
		versioned = true
		err = s.cache.Get(ctx, key, &cached)
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil
		}
		if err != nil {
			return err
		}
		hit = cached.Version == version && cached.List.Tasks != nil
		return nil
	})
	if readErr == nil && hit {
		return &cached.List, nil
	}
	if readErr != nil {
		s.logCacheError(readErr, "task list cache read failed", userID)
	}

	list, err := s.taskService.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !versioned {
		return list, nil
	}

	if err := s.breaker.Execute(func() error {
		return s.cache.Set(ctx, key, cachedTaskList{Version: version, List: *list}, s.ttl)
	}); err != nil {
		s.logCacheError(err, "task list cache write failed", userID)
	}

	return list, nil
}

func (s *CachedTaskService) Update(ctx context.Context, userID uuid.UUID, taskID string, input UpdateTaskInput) (*models.TaskView, error) {
	view, err := s.taskService.Update(ctx, userID, taskID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return view, nil
}

func (s *CachedTaskService) Delete(ctx context.Context, userID uuid.UUID, taskID string) (*models.Task, error) {
	task, err := s.taskService.Delete(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cache":           s.cache.Stats(),
		"circuit_breaker": s.breaker.Stats(),
	}
}

func (s *CachedTaskService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.breaker.Execute(func() error {
		return s.cache.BumpVersion(ctx, taskListVersionKey(userID), taskListKey(userID))
	}); err != nil {
		s.logCacheError(err, "task list cache invalidation failed", userID)
	}
}

func (s *CachedTaskService) logCacheError(err error, msg string, userID uuid.UUID) {
	entry := s.logger.WithError(err).WithField("user_id", userID)
	if errors.Is(err, cache.ErrCircuitBreakerOpen) {
		entry.Debug(msg)
		return
	}
	entry.Warn(msg)
}
