package services

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskify/backend/internal/cache"
	"taskify/backend/internal/models"
)

// CachedTaskService layers a Redis read-through cache over task list
// reads. Cache keys are scoped to the acting user, so a cached list can
// never leak another user's tasks. Failures degrade to the database: a
// broken cache never fails a request.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
	breaker     *cache.CircuitBreaker
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		breaker:     cache.NewCircuitBreaker(nil),
	}
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, actor Actor, input TaskInput) (*models.Task, error) {
	task, err := s.taskService.CreateTask(db, actor, input)
	if err != nil {
		return nil, err
	}
	s.invalidateTask(task)
	return task, nil
}

func (s *CachedTaskService) GetTasks(db *gorm.DB, actor Actor) ([]models.Task, error) {
	key := s.listKey(actor)

	var cached []models.Task
	if s.cacheGet(key, &cached) {
		return cached, nil
	}

	tasks, err := s.taskService.GetTasks(db, actor)
	if err != nil {
		return nil, err
	}

	s.cacheSet(key, tasks, 10*time.Minute)
	return tasks, nil
}

func (s *CachedTaskService) GetMyTasks(db *gorm.DB, actor Actor) ([]models.Task, error) {
	key := cache.UserTasksKey(actor.ID) + ":due"

	var cached []models.Task
	if s.cacheGet(key, &cached) {
		return cached, nil
	}

	tasks, err := s.taskService.GetMyTasks(db, actor)
	if err != nil {
		return nil, err
	}

	s.cacheSet(key, tasks, 10*time.Minute)
	return tasks, nil
}

func (s *CachedTaskService) GetTasksByUser(db *gorm.DB, actor Actor, userID uuid.UUID) ([]models.Task, error) {
	return s.taskService.GetTasksByUser(db, actor, userID)
}

func (s *CachedTaskService) GetTasksInRadius(db *gorm.DB, actor Actor, lat, lng, distanceKm float64) ([]models.Task, error) {
	return s.taskService.GetTasksInRadius(db, actor, lat, lng, distanceKm)
}

// GetTaskByID skips the cache so ownership checks always see the live
// row.
func (s *CachedTaskService) GetTaskByID(db *gorm.DB, actor Actor, id uuid.UUID) (*models.Task, error) {
	return s.taskService.GetTaskByID(db, actor, id)
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, actor Actor, id uuid.UUID, update TaskUpdate) (*models.Task, error) {
	previous, loadErr := s.taskService.GetTaskByID(db, Actor{ID: actor.ID, Role: models.RoleAdmin}, id)

	task, err := s.taskService.UpdateTask(db, actor, id, update)
	if err != nil {
		return nil, err
	}

	s.invalidateTask(task)
	// A reassignment moves the task between user-scoped lists, so the
	// previous owner's keys are stale too.
	if loadErr == nil && previous.UserID != task.UserID {
		s.invalidateUser(previous.UserID)
	}
	return task, nil
}

func (s *CachedTaskService) UpdateTaskStatus(db *gorm.DB, actor Actor, id uuid.UUID, status string) (*models.Task, error) {
	task, err := s.taskService.UpdateTaskStatus(db, actor, id, status)
	if err != nil {
		return nil, err
	}
	s.invalidateTask(task)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, actor Actor, id uuid.UUID) error {
	task, loadErr := s.taskService.GetTaskByID(db, Actor{ID: actor.ID, Role: models.RoleAdmin}, id)

	if err := s.taskService.DeleteTask(db, actor, id); err != nil {
		return err
	}

	if loadErr == nil {
		s.invalidateTask(task)
	} else {
		s.cacheDo(func() error { return s.cache.Delete(cache.AllTasksKey) })
	}
	return nil
}

func (s *CachedTaskService) listKey(actor Actor) string {
	if actor.IsAdmin() {
		return cache.AllTasksKey
	}
	return fmt.Sprintf("%s:all", cache.UserTasksKey(actor.ID))
}

func (s *CachedTaskService) invalidateTask(task *models.Task) {
	s.cacheDo(func() error { return s.cache.Delete(cache.TaskKey(task.ID)) })
	s.cacheDo(func() error { return s.cache.Delete(cache.AllTasksKey) })
	s.invalidateUser(task.UserID)
}

func (s *CachedTaskService) invalidateUser(userID uuid.UUID) {
	s.cacheDo(func() error { return s.cache.DeletePattern(cache.UserTasksPattern(userID)) })
}

func (s *CachedTaskService) cacheGet(key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.breaker.Execute(func() error { return s.cache.Get(key, dest) })
	return err == nil
}

func (s *CachedTaskService) cacheSet(key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	_ = s.breaker.Execute(func() error { return s.cache.Set(key, value, ttl) })
}

func (s *CachedTaskService) cacheDo(fn func() error) {
	if s.cache == nil {
		return
	}
	_ = s.breaker.Execute(fn)
}
