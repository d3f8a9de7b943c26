package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskify/backend/internal/middleware"
	"taskify/backend/internal/services"
)

type DocumentHandler struct {
	db        *gorm.DB
	documents services.DocumentService
}

func NewDocumentHandler(db *gorm.DB, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{db: db, documents: documents}
}

type decisionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var input services.DocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	document, err := h.documents.UploadDocument(h.db, actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, document)
}

func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	documents, err := h.documents.GetDocuments(h.db, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, documents, len(documents))
}

func (h *DocumentHandler) ListPending(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	documents, err := h.documents.GetPendingDocuments(h.db, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, documents, len(documents))
}

func (h *DocumentHandler) ListByTask(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	taskID, err := uuid.FromString(c.Param("taskId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	documents, err := h.documents.GetDocumentsByTask(h.db, actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondList(c, documents, len(documents))
}

func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid document id")
		return
	}

	document, err := h.documents.GetDocumentByID(h.db, actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, document)
}

// Decide approves or rejects a pending document and records the decision
// in the audit log.
func (h *DocumentHandler) Decide(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid document id")
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	document, err := h.documents.Decide(h.db, actor, id, req.Status, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, document)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid document id")
		return
	}

	if err := h.documents.DeleteDocument(h.db, actor, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Document deleted successfully")
}
