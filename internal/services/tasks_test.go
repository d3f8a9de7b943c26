package services

import (
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"taskify/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.Document{}, &models.DocumentAuditEntry{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	user := models.User{
		ID:       id,
		Name:     "Test " + id.String()[:8],
		Email:    id.String()[:8] + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

type TaskServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskServiceImpl
	user    models.User
	other   models.User
	admin   models.User
}

func (s *TaskServiceSuite) SetupTest() {
	s.db = openTestDB(s.T())
	s.service = NewTaskService(NewAuthorizationService())
	s.user = createTestUser(s.T(), s.db, models.RoleUser)
	s.other = createTestUser(s.T(), s.db, models.RoleUser)
	s.admin = createTestUser(s.T(), s.db, models.RoleAdmin)
}

func (s *TaskServiceSuite) actor(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (s *TaskServiceSuite) validInput() TaskInput {
	return TaskInput{
		Title:       "Ship quarterly report",
		Description: "Compile and ship the Q3 report",
		DueDate:     time.Now().Add(48 * time.Hour),
	}
}

func (s *TaskServiceSuite) TestCreateDefaultsToSelfAssignment() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	s.Equal(s.user.ID, task.UserID)
	s.Equal(s.user.ID, task.AssignedByID)
	s.Equal(models.TaskStatusToDo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
}

func (s *TaskServiceSuite) TestCreateForOtherUserDenied() {
	input := s.validInput()
	input.UserID = s.other.ID

	_, err := s.service.CreateTask(s.db, s.actor(s.user), input)

	var fberr *ForbiddenError
	s.Require().ErrorAs(err, &fberr)
	s.Equal("Not authorized to assign tasks to other users", fberr.Message)
}

func (s *TaskServiceSuite) TestAdminAssignsToAnyUser() {
	input := s.validInput()
	input.UserID = s.other.ID

	task, err := s.service.CreateTask(s.db, s.actor(s.admin), input)
	s.Require().NoError(err)

	s.Equal(s.other.ID, task.UserID)
	s.Equal(s.admin.ID, task.AssignedByID)
}

func (s *TaskServiceSuite) TestCreateValidation() {
	input := TaskInput{}
	input.UserID = s.user.ID

	_, err := s.service.CreateTask(s.db, s.actor(s.user), input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Messages, "Please add a title")
	s.Contains(verr.Messages, "Please add a description")
	s.Contains(verr.Messages, "Please add a due date")
}

func (s *TaskServiceSuite) TestLengthLimitsCountCharactersNotBytes() {
	// 60 two-byte characters: 120 bytes but well under the 100-char cap.
	input := s.validInput()
	input.Title = strings.Repeat("å", 60)

	task, err := s.service.CreateTask(s.db, s.actor(s.user), input)
	s.Require().NoError(err)
	s.Equal(input.Title, task.Title)

	input.Title = strings.Repeat("å", 101)
	_, err = s.service.CreateTask(s.db, s.actor(s.user), input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Messages, "Title cannot be more than 100 characters")
}

func (s *TaskServiceSuite) TestCreateRejectsUnknownAssignee() {
	input := s.validInput()
	input.UserID = uuid.Must(uuid.NewV4())

	_, err := s.service.CreateTask(s.db, s.actor(s.admin), input)

	var nferr *NotFoundError
	s.Require().ErrorAs(err, &nferr)
	s.Equal("Assigned user not found", nferr.Message)
}

func (s *TaskServiceSuite) TestCreateRequiresBothCoordinates() {
	lat := 40.7128
	input := s.validInput()
	input.Latitude = &lat

	_, err := s.service.CreateTask(s.db, s.actor(s.user), input)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Messages, "Please provide both latitude and longitude")
}

func (s *TaskServiceSuite) TestGetTasksIsRoleScoped() {
	_, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	otherInput := s.validInput()
	otherInput.UserID = s.other.ID
	_, err = s.service.CreateTask(s.db, s.actor(s.admin), otherInput)
	s.Require().NoError(err)

	mine, err := s.service.GetTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Len(mine, 1)
	s.Equal(s.user.ID, mine[0].UserID)

	all, err := s.service.GetTasks(s.db, s.actor(s.admin))
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *TaskServiceSuite) TestGetMyTasksOrdersByDueDate() {
	later := s.validInput()
	later.Title = "Later task"
	later.DueDate = time.Now().Add(72 * time.Hour)
	_, err := s.service.CreateTask(s.db, s.actor(s.user), later)
	s.Require().NoError(err)

	sooner := s.validInput()
	sooner.Title = "Sooner task"
	sooner.DueDate = time.Now().Add(2 * time.Hour)
	_, err = s.service.CreateTask(s.db, s.actor(s.user), sooner)
	s.Require().NoError(err)

	tasks, err := s.service.GetMyTasks(s.db, s.actor(s.user))
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("Sooner task", tasks[0].Title)
	s.Equal("Later task", tasks[1].Title)
}

func (s *TaskServiceSuite) TestGetTasksByUserRequiresAdmin() {
	_, err := s.service.GetTasksByUser(s.db, s.actor(s.user), s.other.ID)

	var fberr *ForbiddenError
	s.Require().ErrorAs(err, &fberr)

	_, err = s.service.GetTasksByUser(s.db, s.actor(s.admin), s.other.ID)
	s.NoError(err)
}

func (s *TaskServiceSuite) TestGetTasksInRadius() {
	nycLat, nycLng := 40.7128, -74.0060
	bostonLat, bostonLng := 42.3601, -71.0589

	near := s.validInput()
	near.Title = "Near task"
	near.Latitude = &nycLat
	near.Longitude = &nycLng
	_, err := s.service.CreateTask(s.db, s.actor(s.user), near)
	s.Require().NoError(err)

	far := s.validInput()
	far.Title = "Far task"
	far.Latitude = &bostonLat
	far.Longitude = &bostonLng
	_, err = s.service.CreateTask(s.db, s.actor(s.user), far)
	s.Require().NoError(err)

	noLocation := s.validInput()
	noLocation.Title = "No location"
	_, err = s.service.CreateTask(s.db, s.actor(s.user), noLocation)
	s.Require().NoError(err)

	// 50 km around Manhattan reaches the NYC task but not Boston.
	tasks, err := s.service.GetTasksInRadius(s.db, s.actor(s.user), 40.73, -74.0, 50)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("Near task", tasks[0].Title)

	// 400 km covers both located tasks.
	tasks, err = s.service.GetTasksInRadius(s.db, s.actor(s.user), 40.73, -74.0, 400)
	s.Require().NoError(err)
	s.Len(tasks, 2)
}

func (s *TaskServiceSuite) TestGetTaskByIDMissingBeatsForbidden() {
	_, err := s.service.GetTaskByID(s.db, s.actor(s.user), uuid.Must(uuid.NewV4()))

	var nferr *NotFoundError
	s.Require().ErrorAs(err, &nferr)
}

func (s *TaskServiceSuite) TestGetTaskByIDForbiddenForNonOwner() {
	input := s.validInput()
	input.UserID = s.other.ID
	task, err := s.service.CreateTask(s.db, s.actor(s.admin), input)
	s.Require().NoError(err)

	_, err = s.service.GetTaskByID(s.db, s.actor(s.user), task.ID)

	var fberr *ForbiddenError
	s.Require().ErrorAs(err, &fberr)
	s.Equal("Not authorized to access this task", fberr.Message)
}

func (s *TaskServiceSuite) TestUpdateTaskFields() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	title := "Revised title"
	status := models.TaskStatusInProgress
	updated, err := s.service.UpdateTask(s.db, s.actor(s.user), task.ID, TaskUpdate{
		Title:  &title,
		Status: &status,
	})
	s.Require().NoError(err)

	s.Equal("Revised title", updated.Title)
	s.Equal(models.TaskStatusInProgress, updated.Status)
}

func (s *TaskServiceSuite) TestOwnerCannotReassign() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	_, err = s.service.UpdateTask(s.db, s.actor(s.user), task.ID, TaskUpdate{UserID: &s.other.ID})

	var fberr *ForbiddenError
	s.Require().ErrorAs(err, &fberr)
	s.Equal("Not authorized to reassign tasks", fberr.Message)
}

func (s *TaskServiceSuite) TestAdminReassigns() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	updated, err := s.service.UpdateTask(s.db, s.actor(s.admin), task.ID, TaskUpdate{UserID: &s.other.ID})
	s.Require().NoError(err)
	s.Equal(s.other.ID, updated.UserID)
}

func (s *TaskServiceSuite) TestClearLocation() {
	lat, lng := 40.7128, -74.0060
	input := s.validInput()
	input.Latitude = &lat
	input.Longitude = &lng
	task, err := s.service.CreateTask(s.db, s.actor(s.user), input)
	s.Require().NoError(err)
	s.True(task.HasLocation())

	updated, err := s.service.UpdateTask(s.db, s.actor(s.user), task.ID, TaskUpdate{ClearLocation: true})
	s.Require().NoError(err)
	s.False(updated.HasLocation())
}

func (s *TaskServiceSuite) TestUpdateStatusRejectsInvalid() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	_, err = s.service.UpdateTaskStatus(s.db, s.actor(s.user), task.ID, "Archived")

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
}

func (s *TaskServiceSuite) TestUpdateStatus() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	updated, err := s.service.UpdateTaskStatus(s.db, s.actor(s.user), task.ID, models.TaskStatusDone)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, updated.Status)
}

func (s *TaskServiceSuite) TestDeleteCascadesToDocuments() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	documents := NewDocumentService(NewAuthorizationService(), nil)
	for i := 0; i < 3; i++ {
		_, err := documents.UploadDocument(s.db, s.actor(s.user), DocumentInput{
			Name:    "Attachment",
			FileURL: "https://files.example.com/report.pdf",
			TaskID:  task.ID,
		})
		s.Require().NoError(err)
	}

	err = s.service.DeleteTask(s.db, s.actor(s.user), task.ID)
	s.Require().NoError(err)

	var taskCount, docCount, auditCount int64
	s.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&taskCount)
	s.db.Model(&models.Document{}).Where("task_id = ?", task.ID).Count(&docCount)
	s.db.Model(&models.DocumentAuditEntry{}).Count(&auditCount)

	s.Zero(taskCount)
	s.Zero(docCount)
	s.Zero(auditCount)
}

func (s *TaskServiceSuite) TestDeleteDeniedForNonOwner() {
	task, err := s.service.CreateTask(s.db, s.actor(s.user), s.validInput())
	s.Require().NoError(err)

	err = s.service.DeleteTask(s.db, s.actor(s.other), task.ID)

	var fberr *ForbiddenError
	s.Require().ErrorAs(err, &fberr)
	s.Equal("Not authorized to delete this task", fberr.Message)
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}
