package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskify/backend/internal/models"
	"taskify/backend/internal/worker"
)

type DocumentInput struct {
	Name     string    `json:"name"`
	FileURL  string    `json:"fileUrl"`
	TaskID   uuid.UUID `json:"task"`
	FileSize int64     `json:"fileSize"`
	// UserID is accepted but never trusted: the stored uploader is
	// always the task owner.
	UserID uuid.UUID `json:"user_id"`
}

// JobEnqueuer lets the document workflow hand off notification jobs
// without owning the queue.
type JobEnqueuer interface {
	Enqueue(queue string, jobType worker.JobType, payload map[string]interface{}) error
}

type DocumentService interface {
	UploadDocument(db *gorm.DB, actor Actor, input DocumentInput) (*models.Document, error)
	GetDocuments(db *gorm.DB, actor Actor) ([]models.Document, error)
	GetDocumentByID(db *gorm.DB, actor Actor, id uuid.UUID) (*models.Document, error)
	GetDocumentsByTask(db *gorm.DB, actor Actor, taskID uuid.UUID) ([]models.Document, error)
	GetPendingDocuments(db *gorm.DB, actor Actor) ([]models.Document, error)
	Decide(db *gorm.DB, actor Actor, id uuid.UUID, decision, notes string) (*models.Document, error)
	DeleteDocument(db *gorm.DB, actor Actor, id uuid.UUID) error
}

type DocumentServiceImpl struct {
	authz AuthorizationService
	queue JobEnqueuer
}

func NewDocumentService(authz AuthorizationService, queue JobEnqueuer) *DocumentServiceImpl {
	return &DocumentServiceImpl{authz: authz, queue: queue}
}

// UploadDocument creates a Pending document against the actor's own
// task. Normalization is explicit rather than hidden in save hooks: the
// uploader is forced to the task owner, the file type is inferred from
// the URL, and the Created audit entry is written in the same
// transaction.
func (s *DocumentServiceImpl) UploadDocument(db *gorm.DB, actor Actor, input DocumentInput) (*models.Document, error) {
	if err := validateDocumentInput(input); err != nil {
		return nil, err
	}

	var task models.Task
	if err := db.First(&task, "id = ?", input.TaskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionUpload,
		OwnerID:  task.UserID,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	now := time.Now()
	document := models.Document{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      input.Name,
		FileURL:   input.FileURL,
		Status:    models.DocumentStatusPending,
		TaskID:    task.ID,
		UserID:    task.UserID,
		FileType:  models.DetectFileType(input.FileURL),
		FileSize:  input.FileSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&document).Error; err != nil {
			return err
		}
		entry := models.DocumentAuditEntry{
			ID:         uuid.Must(uuid.NewV4()),
			DocumentID: document.ID,
			Seq:        0,
			Action:     models.AuditActionCreated,
			UserID:     actor.ID,
			Notes:      "Document uploaded",
			Timestamp:  now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return s.loadDocument(db, document.ID)
}

func (s *DocumentServiceImpl) GetDocuments(db *gorm.DB, actor Actor) ([]models.Document, error) {
	query := db.Preload("User").Preload("Task").Order("created_at desc")
	if !actor.IsAdmin() {
		query = query.Where("task_id IN (?)",
			db.Model(&models.Task{}).Select("id").Where("user_id = ?", actor.ID))
	}

	var documents []models.Document
	if err := query.Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (s *DocumentServiceImpl) GetDocumentByID(db *gorm.DB, actor Actor, id uuid.UUID) (*models.Document, error) {
	document, err := s.loadDocument(db, id)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.taskOwner(db, document.TaskID)
	if err != nil {
		return nil, err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionRead,
		OwnerID:  ownerID,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	return document, nil
}

func (s *DocumentServiceImpl) GetDocumentsByTask(db *gorm.DB, actor Actor, taskID uuid.UUID) ([]models.Document, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Task not found"}
		}
		return nil, err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionRead,
		OwnerID:  task.UserID,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: "Not authorized to access documents for this task"}
	}

	var documents []models.Document
	err := db.Preload("User").Preload("Task").
		Where("task_id = ?", taskID).
		Order("created_at desc").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (s *DocumentServiceImpl) GetPendingDocuments(db *gorm.DB, actor Actor) ([]models.Document, error) {
	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionListPending,
	})
	if !decision.Allowed {
		return nil, &ForbiddenError{Message: decision.Reason}
	}

	var documents []models.Document
	err := db.Preload("User").Preload("Task").
		Where("status = ?", models.DocumentStatusPending).
		Order("created_at desc").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// Decide moves a Pending document to Approved or Rejected. The status
// write is a single conditional update keyed on the current Pending
// status, so the second of two concurrent decisions loses at the store
// rather than overwriting the first.
func (s *DocumentServiceImpl) Decide(db *gorm.DB, actor Actor, id uuid.UUID, decision, notes string) (*models.Document, error) {
	if !models.ValidDecision(decision) {
		return nil, &ValidationError{Messages: []string{"Please provide a valid status (Approved or Rejected)"}}
	}
	if utf8.RuneCountInString(notes) > models.MaxAuditNotesLength {
		return nil, &ValidationError{Messages: []string{"Notes cannot be more than 500 characters"}}
	}

	var document models.Document
	if err := db.First(&document, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Document not found"}
		}
		return nil, err
	}

	if document.Status != models.DocumentStatusPending {
		return nil, alreadyDecided(document.Status)
	}

	authzDecision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionDecide,
	})
	if !authzDecision.Allowed {
		return nil, &ForbiddenError{Message: authzDecision.Reason}
	}

	if notes == "" {
		notes = fmt.Sprintf("Document %s by admin", strings.ToLower(decision))
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Document{}).
			Where("id = ? AND status = ?", id, models.DocumentStatusPending).
			Updates(map[string]interface{}{
				"status":     decision,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// A concurrent decision won the conditional update.
			var current models.Document
			if err := tx.First(&current, "id = ?", id).Error; err != nil {
				return err
			}
			return alreadyDecided(current.Status)
		}

		var seq int64
		if err := tx.Model(&models.DocumentAuditEntry{}).Where("document_id = ?", id).Count(&seq).Error; err != nil {
			return err
		}

		entry := models.DocumentAuditEntry{
			ID:         uuid.Must(uuid.NewV4()),
			DocumentID: id,
			Seq:        int(seq),
			Action:     decision,
			UserID:     actor.ID,
			Notes:      notes,
			Timestamp:  now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.loadDocument(db, id)
	if err != nil {
		return nil, err
	}

	s.notifyDecision(updated, actor)

	return updated, nil
}

func (s *DocumentServiceImpl) DeleteDocument(db *gorm.DB, actor Actor, id uuid.UUID) error {
	var document models.Document
	if err := db.First(&document, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Message: "Document not found"}
		}
		return err
	}

	ownerID, err := s.taskOwner(db, document.TaskID)
	if err != nil {
		return err
	}

	decision := s.authz.Authorize(actor, AccessRequest{
		Resource: ResourceDocument,
		Action:   ActionDelete,
		OwnerID:  ownerID,
	})
	if !decision.Allowed {
		return &ForbiddenError{Message: decision.Reason}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentAuditEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", id).Error
	})
}

func (s *DocumentServiceImpl) loadDocument(db *gorm.DB, id uuid.UUID) (*models.Document, error) {
	var document models.Document
	err := db.Preload("User").Preload("Task").
		Preload("AuditLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc")
		}).
		First(&document, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "Document not found"}
		}
		return nil, err
	}
	return &document, nil
}

// taskOwner resolves the owner of a document's parent task. A document
// whose task vanished is treated as inaccessible to non-admins.
func (s *DocumentServiceImpl) taskOwner(db *gorm.DB, taskID uuid.UUID) (uuid.UUID, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return task.UserID, nil
}

func (s *DocumentServiceImpl) notifyDecision(document *models.Document, actor Actor) {
	if s.queue == nil {
		return
	}
	// Notification delivery is best effort and never fails the decision.
	_ = s.queue.Enqueue(worker.QueueNotifications, worker.JobTypeDocumentDecision, map[string]interface{}{
		"document_id": document.ID.String(),
		"task_id":     document.TaskID.String(),
		"uploader_id": document.UserID.String(),
		"status":      document.Status,
		"decided_by":  actor.ID.String(),
	})
}

func alreadyDecided(status string) error {
	return &ConflictError{
		Message: fmt.Sprintf("Document has already been %s", strings.ToLower(status)),
	}
}

func validateDocumentInput(input DocumentInput) error {
	verr := &ValidationError{}

	if input.Name == "" {
		verr.Add("Please add document name")
	} else if utf8.RuneCountInString(input.Name) > models.MaxDocumentNameLength {
		verr.Add("Document name cannot be more than 255 characters")
	}

	if input.FileURL == "" {
		verr.Add("Please add file URL")
	} else if !models.ValidFileURL(input.FileURL) {
		verr.Add("Please provide a valid URL")
	}

	if input.TaskID == uuid.Nil {
		verr.Add("Please provide a task")
	}

	if input.FileSize < 0 {
		verr.Add("File size cannot be negative")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
