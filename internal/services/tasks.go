package services

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskify/backend/internal/models"
)

// earthRadiusKm converts a great-circle distance to radians for the
// radius query.
const earthRadiusKm = 6378.0

type TaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	UserID      uuid.UUID `json:"user_id"`
	Priority    string    `json:"priority"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
}

// TaskUpdate carries a partial update; nil fields are left untouched.
// ClearLocation removes the stored coordinates.
type TaskUpdate struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	DueDate       *time.Time `json:"due_date"`
	UserID        *uuid.UUID `json:"user_id"`
	Priority      *string    `json:"priority"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	ClearLocation bool       `json:"clear_location"`
}

type TaskService interface {
	CreateTask(db *gorm.DB, actor Actor, input TaskInput) (*models.Task, error)
	GetTasks(db *gorm.DB, actor Actor) ([]models.Task, error)
	GetMyTasks(db *gorm.DB, actor Actor) ([]models.Task, error)
	GetTasksByUser(db *gorm.DB, actor Actor, userID uuid.UUID) ([]models.Task, error)
	GetTasksInRadius(db *gorm.DB, actor Actor, lat, lng, distanceKm float64) ([]models.Task, error)
	GetTaskByID(db *gorm.DB, actor Actor, id uuid.UUID) (*models.Task, error)
	UpdateTask(db *gorm.DB, actor Actor, id uuid.UUID, update TaskUpdate) (*models.Task, error)
	UpdateTaskStatus(db *gorm.DB, actor Actor, id uuid.UUID, status string) (*models.Task, error)
	DeleteTask(db *gorm.DB, actor Actor, id uuid.UUID) error
}

type TaskServiceImpl struct {
	authz AuthorizationService
}

func NewTaskService(authz AuthorizationService) *TaskServiceImpl {
	return &TaskServiceImpl{authz: authz}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, actor Actor, input TaskInput) (*models.Task, error) {
	assignee := input.UserID
	if assignee == uuid.Nil && !actor.IsAdmin() {
		assignee = actor.ID
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource:     ResourceTask,
		Action:       ActionCreate,
		TargetUserID: assignee,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	if err := validateTaskInput(input, assignee); err != nil {
		return nil, err
	}

	var assigneeUser models.User
	if err := db.First(&assigneeUser, "id = ?", assignee).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Assigned user not found"}
		}
		return nil, err
	}

	now := time.Now()
	task := models.Task{
		ID:           uuid.Must(uuid.NewV4()),
		Title:        input.Title,
		Description:  input.Description,
		Status:       input.Status,
		DueDate:      input.DueDate,
		UserID:       assignee,
		AssignedByID: actor.ID,
		Priority:     input.Priority,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusToDo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}

	return s.loadTask(db, task.ID)
}

func (s *TaskServiceImpl) GetTasks(db *gorm.DB, actor Actor) ([]models.Task, error) {
	query := db.Preload("User").Preload("AssignedBy").Order("created_at desc")
	if !actor.IsAdmin() {
		query = query.Where("user_id = ?", actor.ID)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetMyTasks(db *gorm.DB, actor Actor) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Preload("User").Preload("AssignedBy").
		Where("user_id = ?", actor.ID).
		Order("due_date asc").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTasksByUser(db *gorm.DB, actor Actor, userID uuid.UUID) ([]models.Task, error) {
	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceTask,
		Action:   ActionListByUser,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	var tasks []models.Task
	err := db.Preload("User").Preload("AssignedBy").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTasksInRadius(db *gorm.DB, actor Actor, lat, lng, distanceKm float64) ([]models.Task, error) {
	query := db.Preload("User").Preload("AssignedBy").
		Where("latitude IS NOT NULL AND longitude IS NOT NULL")
	if !actor.IsAdmin() {
		query = query.Where("user_id = ?", actor.ID)
	}

	var candidates []models.Task
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	radius := distanceKm / earthRadiusKm

	tasks := make([]models.Task, 0, len(candidates))
	for _, task := range candidates {
		if angularDistance(lat, lng, *task.Latitude, *task.Longitude) <= radius {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, actor Actor, id uuid.UUID) (*models.Task, error) {
	task, err := s.loadTask(db, id)
	if err != nil {
		return nil, err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceTask,
		Action:   ActionRead,
		OwnerID:  task.UserID,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, actor Actor, id uuid.UUID, update TaskUpdate) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}

	req := AccessRequest{
		Resource: ResourceTask,
		Action:   ActionUpdate,
		OwnerID:  task.UserID,
	}
	if update.UserID != nil {
		req.TargetUserID = *update.UserID
	}
	decision := s.authz.Authorize(actor, req)
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	if err := applyTaskUpdate(&task, update); err != nil {
		return nil, err
	}
	task.UpdatedAt = time.Now()

	if err := db.Save(&task).Error; err != nil {
		return nil, err
	}

	return s.loadTask(db, task.ID)
}

func (s *TaskServiceImpl) UpdateTaskStatus(db *gorm.DB, actor Actor, id uuid.UUID, status string) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, &ValidationError{Messages: []string{"Please provide a valid status"}}
	}

	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceTask,
		Action:   ActionUpdateStatus,
		OwnerID:  task.UserID,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	err := db.Model(&task).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}

	return s.loadTask(db, task.ID)
}

// DeleteTask removes the task and every document attached to it as one
// transaction: a failed cascade aborts the task deletion.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, actor Actor, id uuid.UUID) error {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Message: "Task not found"}
		}
		return err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceTask,
		Action:   ActionDelete,
		OwnerID:  task.UserID,
	})
	if !decision.Allowed {
		return &ForbiddenError{Message: decision.Reason}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var documentIDs []uuid.UUID
		err := tx.Model(&models.Document{}).
			Where("task_id = ?", id).
			Pluck("id", &documentIDs).Error
		if err != nil {
			return fmt.Errorf("failed to collect documents for cascade: %w", err)
		}

		if len(documentIDs) > 0 {
			if err := tx.Where("document_id IN ?", documentIDs).Delete(&models.DocumentAuditEntry{}).Error; err != nil {
				return fmt.Errorf("failed to delete document audit entries: %w", err)
			}
			if err := tx.Where("task_id = ?", id).Delete(&models.Document{}).Error; err != nil {
				return fmt.Errorf("failed to delete documents: %w", err)
			}
		}

		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}

func (s *TaskServiceImpl) loadTask(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Preload("User").Preload("AssignedBy").First(&task, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}
	return &task, nil
}

func validateTaskInput(input TaskInput, assignee uuid.UUID) error {
	verr := &ValidationError{}

	if input.Title == "" {
		verr.Add("Please add a title")
	} else if utf8.RuneCountInString(input.Title) > models.MaxTitleLength {
		verr.Add("Title cannot be more than 100 characters")
	}

	if input.Description == "" {
		verr.Add("Please add a description")
	} else if utf8.RuneCountInString(input.Description) > models.MaxDescriptionLength {
		verr.Add("Description cannot be more than 500 characters")
	}

	if input.DueDate.IsZero() {
		verr.Add("Please add a due date")
	}

	if assignee == uuid.Nil {
		verr.Add("Please assign the task to a user")
	}

	if input.Status != "" && !models.ValidTaskStatus(input.Status) {
		verr.Add("Please provide a valid status")
	}

	if input.Priority != "" && !models.ValidTaskPriority(input.Priority) {
		verr.Add("Please provide a valid priority")
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		verr.Add("Please provide both latitude and longitude")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func applyTaskUpdate(task *models.Task, update TaskUpdate) error {
	verr := &ValidationError{}

	if update.Title != nil {
		if *update.Title == "" {
			verr.Add("Please add a title")
		} else if utf8.RuneCountInString(*update.Title) > models.MaxTitleLength {
			verr.Add("Title cannot be more than 100 characters")
		} else {
			task.Title = *update.Title
		}
	}

	if update.Description != nil {
		if utf8.RuneCountInString(*update.Description) > models.MaxDescriptionLength {
			verr.Add("Description cannot be more than 500 characters")
		} else {
			task.Description = *update.Description
		}
	}

	if update.Status != nil {
		if !models.ValidTaskStatus(*update.Status) {
			verr.Add("Please provide a valid status")
		} else {
			task.Status = *update.Status
		}
	}

	if update.Priority != nil {
		if !models.ValidTaskPriority(*update.Priority) {
			verr.Add("Please provide a valid priority")
		} else {
			task.Priority = *update.Priority
		}
	}

	if update.DueDate != nil {
		task.DueDate = *update.DueDate
	}

	if update.UserID != nil && *update.UserID != uuid.Nil {
		task.UserID = *update.UserID
	}

	if update.ClearLocation {
		task.Latitude = nil
		task.Longitude = nil
	} else if update.Latitude != nil || update.Longitude != nil {
		if update.Latitude == nil || update.Longitude == nil {
			verr.Add("Please provide both latitude and longitude")
		} else {
			task.Latitude = update.Latitude
			task.Longitude = update.Longitude
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// angularDistance is the haversine central angle in radians between two
// points given as (lat, lng) degrees.
func angularDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
