package models

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

const (
	DocumentStatusPending  = "Pending"
	DocumentStatusApproved = "Approved"
	DocumentStatusRejected = "Rejected"
)

const (
	AuditActionCreated  = "Created"
	AuditActionApproved = "Approved"
	AuditActionRejected = "Rejected"
)

const (
	MaxDocumentNameLength = 255
	MaxAuditNotesLength   = 500
)

type Document struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name     string    `json:"name" gorm:"not null"`
	FileURL  string    `json:"file_url" gorm:"not null"`
	Status   string    `json:"status" gorm:"not null;default:'Pending';index"`
	TaskID   uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	FileType string    `json:"file_type" gorm:"not null;default:'other'"`
	FileSize int64     `json:"file_size" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task *Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`

	AuditLog []DocumentAuditEntry `json:"audit_log" gorm:"foreignKey:DocumentID"`
}

// DocumentAuditEntry is one row of a document's append-only history.
// Seq orders entries; Seq 0 is always the Created entry.
type DocumentAuditEntry struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	DocumentID uuid.UUID `json:"document_id" gorm:"type:uuid;not null;index"`
	Seq        int       `json:"seq" gorm:"not null"`
	Action     string    `json:"action" gorm:"not null"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Notes      string    `json:"notes"`
	Timestamp  time.Time `json:"timestamp"`

	User *User `json:"audit_user,omitempty" gorm:"foreignKey:UserID"`
}

func ValidDocumentStatus(status string) bool {
	switch status {
	case DocumentStatusPending, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// ValidDecision reports whether status is a terminal approval decision.
func ValidDecision(status string) bool {
	return status == DocumentStatusApproved || status == DocumentStatusRejected
}

var fileTypeByExtension = map[string]string{
	"pdf":  "pdf",
	"doc":  "doc",
	"docx": "docx",
	"txt":  "txt",
	"jpg":  "image",
	"jpeg": "image",
	"png":  "image",
	"gif":  "image",
}

// DetectFileType maps a file URL's extension to a coarse document type.
// Unknown extensions fall back to "other".
func DetectFileType(fileURL string) string {
	parsed, err := url.Parse(fileURL)
	target := fileURL
	if err == nil && parsed.Path != "" {
		target = parsed.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(target)), ".")
	if t, ok := fileTypeByExtension[ext]; ok {
		return t
	}
	return "other"
}

// ValidFileURL requires an absolute URL with a scheme and host.
func ValidFileURL(fileURL string) bool {
	parsed, err := url.Parse(fileURL)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// FormattedFileSize renders bytes with binary 1024 thresholds: whole
// bytes, two-decimal KB, two-decimal MB.
func (d *Document) FormattedFileSize() string {
	switch {
	case d.FileSize < 1024:
		return fmt.Sprintf("%d B", d.FileSize)
	case d.FileSize < 1048576:
		return fmt.Sprintf("%.2f KB", float64(d.FileSize)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(d.FileSize)/1048576)
	}
}

// DaysSinceUpload is the age of the document in whole days, rounded up.
// The absolute difference keeps it non-negative under clock skew.
func (d *Document) DaysSinceUpload(now time.Time) int {
	diff := now.Sub(d.CreatedAt)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return json.Marshal(struct {
		alias
		FormattedFileSize string `json:"formatted_file_size"`
		DaysSinceUpload   int    `json:"days_since_upload"`
	}{
		alias:             alias(d),
		FormattedFileSize: d.FormattedFileSize(),
		DaysSinceUpload:   d.DaysSinceUpload(time.Now()),
	})
}
