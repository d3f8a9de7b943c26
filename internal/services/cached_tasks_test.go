package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"taskify/backend/internal/cache"
	"taskify/backend/internal/models"
)

type CachedTaskServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	redis   *miniredis.Miniredis
	service *CachedTaskService
	user    models.User
	other   models.User
	admin   models.User
}

func (s *CachedTaskServiceSuite) SetupTest() {
	s.db = openTestDB(s.T())

	var err error
	s.redis, err = miniredis.Run()
	s.Require().NoError(err)

	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	taskCache := cache.NewRedisCacheWithClient(client)

	s.service = NewCachedTaskService(NewTaskService(NewAuthorizationService()), taskCache)
	s.user = createTestUser(s.T(), s.db, models.RoleUser)
	s.other = createTestUser(s.T(), s.db, models.RoleUser)
	s.admin = createTestUser(s.T(), s.db, models.RoleAdmin)
}

func (s *CachedTaskServiceSuite) TearDownTest() {
	s.redis.Close()
}

func (s *CachedTaskServiceSuite) actor(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (s *CachedTaskServiceSuite) createTask(title string) *models.Task {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), TaskInput{
		Title:       title,
		Description: "Cached task test fixture",
		DueDate:     time.Now().Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	return task
}

func (s *CachedTaskServiceSuite) TestListIsServedFromCacheOnSecondRead() {
	s.createTask("First task")

	tasks, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Len(tasks, 1)

	key := cache.UserTasksKey(s.user.ID) + ":all"
	s.True(s.redis.Exists(key))

	// A write bypassing the service is invisible until invalidation,
	// proving the second read came from the cache.
	s.Require().NoError(s.db.Model(&models.Task{}).Where("user_id = ?", s.user.ID).
		Update("title", "Renamed behind the cache").Error)

	cached, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Require().Len(cached, 1)
	s.Equal("First task", cached[0].Title)
}

func (s *CachedTaskServiceSuite) TestWriteInvalidatesCachedLists() {
	task := s.createTask("First task")

	_, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	_, err = s.service.GetTasks(s.db, s.actor(s.admin))
	s.Require().NoError(err)
	s.True(s.redis.Exists(cache.AllTasksKey))

	_, err = s.service.UpdateTaskStatus(s.db, s.actor(s.user), task.ID, models.TaskStatusDone)
	s.Require().NoError(err)

	s.False(s.redis.Exists(cache.AllTasksKey))
	s.False(s.redis.Exists(cache.UserTasksKey(s.user.ID) + ":all"))

	fresh, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, fresh[0].Status)
}

func (s *CachedTaskServiceSuite) TestAdminAndUserListsAreSeparateKeys() {
	s.createTask("First task")

	_, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	_, err = s.service.GetTasks(s.db, s.actor(s.admin))
	s.Require().NoError(err)

	s.True(s.redis.Exists(cache.AllTasksKey))
	s.True(s.redis.Exists(cache.UserTasksKey(s.user.ID) + ":all"))
}

func (s *CachedTaskServiceSuite) TestDeleteInvalidates() {
	task := s.createTask("Doomed task")

	_, err := s.service.GetMyTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.True(s.redis.Exists(cache.UserTasksKey(s.user.ID) + ":due"))

	s.Require().NoError(s.service.DeleteTask(s.db, s.actor(s.user), task.ID))
	s.False(s.redis.Exists(cache.UserTasksKey(s.user.ID) + ":due"))
}

func (s *CachedTaskServiceSuite) TestReassignmentInvalidatesPreviousOwner() {
	task := s.createTask("Handed off")

	tasks, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)

	_, err = s.service.UpdateTask(s.db, s.actor(s.admin), task.ID, TaskUpdate{UserID: &s.other.ID})
	s.Require().NoError(err)

	// The previous owner's cached list must not keep serving the task.
	stale, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Empty(stale)

	gained, err := s.service.GetTasks(s.db, s.actor(s.other))
	s.Require().NoError(err)
	s.Len(gained, 1)
}

func (s *CachedTaskServiceSuite) TestRedisOutageFallsBackToDatabase() {
	s.createTask("Resilient task")
	s.redis.Close()

	tasks, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func TestCachedTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(CachedTaskServiceSuite))
}
