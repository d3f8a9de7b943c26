package services

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"taskify/backend/internal/models"
)

func newActor(role string) Actor {
	return Actor{ID: uuid.Must(uuid.NewV4()), Role: role}
}

func TestTaskAuthorization(t *testing.T) {
	authz := NewAuthorizationService()
	user := newActor(models.RoleUser)
	admin := newActor(models.RoleAdmin)
	otherID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		actor   Actor
		req     AccessRequest
		allowed bool
		reason  string
	}{
		{
			name:    "user creates task for self",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionCreate, TargetUserID: user.ID},
			allowed: true,
		},
		{
			name:    "user cannot assign task to someone else",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionCreate, TargetUserID: otherID},
			allowed: false,
			reason:  "Not authorized to assign tasks to other users",
		},
		{
			name:    "admin assigns task to anyone",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionCreate, TargetUserID: otherID},
			allowed: true,
		},
		{
			name:    "owner reads own task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionRead, OwnerID: user.ID},
			allowed: true,
		},
		{
			name:    "user cannot read another user's task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionRead, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to access this task",
		},
		{
			name:    "admin reads any task",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionRead, OwnerID: otherID},
			allowed: true,
		},
		{
			name:    "owner updates own task without reassignment",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionUpdate, OwnerID: user.ID},
			allowed: true,
		},
		{
			name:    "owner cannot reassign own task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionUpdate, OwnerID: user.ID, TargetUserID: otherID},
			allowed: false,
			reason:  "Not authorized to reassign tasks",
		},
		{
			name:    "admin reassigns any task",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionUpdate, OwnerID: otherID, TargetUserID: admin.ID},
			allowed: true,
		},
		{
			name:    "user cannot update another user's task status",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionUpdateStatus, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to update this task",
		},
		{
			name:    "owner deletes own task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionDelete, OwnerID: user.ID},
			allowed: true,
		},
		{
			name:    "user cannot delete another user's task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionDelete, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to delete this task",
		},
		{
			name:    "non-admin cannot list tasks by user",
			actor:   user,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionListByUser},
			allowed: false,
			reason:  "Not authorized to view tasks by user",
		},
		{
			name:    "admin lists tasks by user",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceTask, Action: ActionListByUser},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := authz.Authorize(tt.actor, tt.req)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.reason, decision.Reason)
			}
		})
	}
}

func TestDocumentAuthorization(t *testing.T) {
	authz := NewAuthorizationService()
	user := newActor(models.RoleUser)
	admin := newActor(models.RoleAdmin)
	otherID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		actor   Actor
		req     AccessRequest
		allowed bool
		reason  string
	}{
		{
			name:    "task owner uploads to own task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionUpload, OwnerID: user.ID},
			allowed: true,
		},
		{
			name:    "user cannot upload to another user's task",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionUpload, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to add document to this task",
		},
		{
			name:    "admin cannot upload to a task they do not own",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionUpload, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to add document to this task",
		},
		{
			name:    "admin uploads to own task",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionUpload, OwnerID: admin.ID},
			allowed: true,
		},
		{
			name:    "task owner reads own document",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionRead, OwnerID: user.ID},
			allowed: true,
		},
		{
			name:    "user cannot read another user's document",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionRead, OwnerID: otherID},
			allowed: false,
			reason:  "Not authorized to access this document",
		},
		{
			name:    "admin reads any document",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionRead, OwnerID: otherID},
			allowed: true,
		},
		{
			name:    "admin decides documents",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionDecide},
			allowed: true,
		},
		{
			name:    "non-admin cannot decide documents",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionDecide},
			allowed: false,
			reason:  "Not authorized to approve or reject documents",
		},
		{
			name:    "non-admin cannot list pending documents",
			actor:   user,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionListPending},
			allowed: false,
			reason:  "Not authorized to view pending documents",
		},
		{
			name:    "admin lists pending documents",
			actor:   admin,
			req:     AccessRequest{Resource: ResourceDocument, Action: ActionListPending},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := authz.Authorize(tt.actor, tt.req)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.reason, decision.Reason)
			}
		})
	}
}

func TestUnknownResourceDenied(t *testing.T) {
	authz := NewAuthorizationService()
	decision := authz.Authorize(newActor(models.RoleAdmin), AccessRequest{Resource: "widget", Action: ActionRead})
	assert.False(t, decision.Allowed)
}
