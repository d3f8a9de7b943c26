package services

import (
	"github.com/gofrs/uuid"

	"taskify/backend/internal/models"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Actions evaluated by the authorization gate. Task ownership means
// being the task's assignee; document ownership means owning the parent
// task.
const (
	ActionRead         = "read"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionUpdateStatus = "update_status"
	ActionDelete       = "delete"
	ActionUpload       = "upload"
	ActionDecide       = "decide"
	ActionListAll      = "list_all"
	ActionListByUser   = "list_by_user"
	ActionListPending  = "list_pending"
)

const (
	ResourceTask     = "task"
	ResourceDocument = "document"
)

// AccessRequest describes one operation against one resource. OwnerID is
// the resource owner (callers resolve the resource first, so denial here
// never masks a missing resource). TargetUserID carries the assignee for
// create/reassign checks.
type AccessRequest struct {
	Resource     string
	Action       string
	OwnerID      uuid.UUID
	TargetUserID uuid.UUID
}

type AccessDecision struct {
	Allowed bool
	Reason  string
}

// AuthorizationService is the single gate consulted before every task
// and document operation. Handlers and services never re-implement role
// or ownership branching on their own.
type AuthorizationService interface {
	Authorize(actor Actor, req AccessRequest) AccessDecision
}

type AuthorizationServiceImpl struct{}

func NewAuthorizationService() *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{}
}

func allow() AccessDecision {
	return AccessDecision{Allowed: true}
}

func deny(reason string) AccessDecision {
	return AccessDecision{Allowed: false, Reason: reason}
}

func (s *AuthorizationServiceImpl) Authorize(actor Actor, req AccessRequest) AccessDecision {
	switch req.Resource {
	case ResourceTask:
		return s.authorizeTask(actor, req)
	case ResourceDocument:
		return s.authorizeDocument(actor, req)
	}
	return deny("Unknown resource type")
}

func (s *AuthorizationServiceImpl) authorizeTask(actor Actor, req AccessRequest) AccessDecision {
	switch req.Action {
	case ActionCreate:
		if actor.IsAdmin() || req.TargetUserID == actor.ID {
			return allow()
		}
		return deny("Not authorized to assign tasks to other users")

	case ActionRead:
		if actor.IsAdmin() || req.OwnerID == actor.ID {
			return allow()
		}
		return deny("Not authorized to access this task")

	case ActionUpdate, ActionUpdateStatus:
		if !actor.IsAdmin() && req.OwnerID != actor.ID {
			return deny("Not authorized to update this task")
		}
		// Owners may edit their task but only admins may hand it to
		// someone else.
		if !actor.IsAdmin() && req.TargetUserID != uuid.Nil && req.TargetUserID != req.OwnerID {
			return deny("Not authorized to reassign tasks")
		}
		return allow()

	case ActionDelete:
		if actor.IsAdmin() || req.OwnerID == actor.ID {
			return allow()
		}
		return deny("Not authorized to delete this task")

	case ActionListAll:
		return allow()

	case ActionListByUser:
		if actor.IsAdmin() {
			return allow()
		}
		return deny("Not authorized to view tasks by user")
	}

	return deny("Unknown task action")
}

func (s *AuthorizationServiceImpl) authorizeDocument(actor Actor, req AccessRequest) AccessDecision {
	switch req.Action {
	case ActionUpload:
		// Uploads are tied to task ownership for everyone, admins
		// included: the stored uploader is always the task owner.
		if req.OwnerID == actor.ID {
			return allow()
		}
		return deny("Not authorized to add document to this task")

	case ActionRead:
		if actor.IsAdmin() || req.OwnerID == actor.ID {
			return allow()
		}
		return deny("Not authorized to access this document")

	case ActionDecide:
		if actor.IsAdmin() {
			return allow()
		}
		return deny("Not authorized to approve or reject documents")

	case ActionDelete:
		if actor.IsAdmin() || req.OwnerID == actor.ID {
			return allow()
		}
		return deny("Not authorized to delete this document")

	case ActionListAll:
		return allow()

	case ActionListPending:
		if actor.IsAdmin() {
			return allow()
		}
		return deny("Not authorized to view pending documents")
	}

	return deny("Unknown document action")
}
