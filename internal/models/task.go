package models

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
)

const (
	TaskStatusToDo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

const (
	TaskPriorityLow    = "Low"
	TaskPriorityMedium = "Medium"
	TaskPriorityHigh   = "High"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

type Task struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description" gorm:"not null"`
	Status       string    `json:"status" gorm:"not null;default:'To Do'"`
	DueDate      time.Time `json:"due_date" gorm:"not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	AssignedByID uuid.UUID `json:"assigned_by_id" gorm:"type:uuid;not null;index"`
	Priority     string    `json:"priority" gorm:"not null;default:'Medium'"`

	Longitude *float64 `json:"-"`
	Latitude  *float64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User       *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AssignedBy *User `json:"assigned_by,omitempty" gorm:"foreignKey:AssignedByID"`
}

// GeoPoint follows the GeoJSON convention: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

func (t *Task) HasLocation() bool {
	return t.Longitude != nil && t.Latitude != nil
}

func (t *Task) Location() *GeoPoint {
	if !t.HasLocation() {
		return nil
	}
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{*t.Longitude, *t.Latitude},
	}
}

// IsOverdue is recomputed on every read rather than stored. A task due
// exactly now is not overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != TaskStatusDone
}

func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		IsOverdue bool      `json:"is_overdue"`
		Location  *GeoPoint `json:"location,omitempty"`
	}{
		alias:     alias(t),
		IsOverdue: t.IsOverdue(time.Now()),
		Location:  t.Location(),
	})
}

// UnmarshalJSON restores the coordinates from the location field so a
// marshal/unmarshal round trip (the cache does one) keeps them.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		Location *GeoPoint `json:"location"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Location != nil && len(aux.Location.Coordinates) == 2 {
		lng, lat := aux.Location.Coordinates[0], aux.Location.Coordinates[1]
		t.Longitude = &lng
		t.Latitude = &lat
	}
	return nil
}
