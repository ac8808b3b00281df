package transfers

import (
	"errors"

	transfersvc "orgchart-backend/internal/application/transfers"
	"orgchart-backend/internal/middleware"
	"orgchart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	errInvalidTransferID = errors.New("Invalid transfer id")
	errInvalidBody       = errors.New("Invalid request body")
)

// Handlers bundles ownership transfer handlers with dependencies.
type Handlers struct {
	Manager *transfersvc.Manager
}

// InitiateRequest body for POST /api/v1/orgs/:org_id/ownership-transfers.
type InitiateRequest struct {
	RecipientID string `json:"recipient_id"`
	Reason      string `json:"reason"`
}

// RespondRequest body for reject and cancel.
type RespondRequest struct {
	ResponseReason string `json:"response_reason"`
}

// Initiate POST /api/v1/orgs/:org_id/ownership-transfers
func (h *Handlers) Initiate(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", fiber.StatusBadRequest, nil)
	}
	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "recipient_id is required", fiber.StatusBadRequest, nil)
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return response.Error(c, "recipient_id is required", fiber.StatusBadRequest, nil)
	}

	t, err := h.Manager.Initiate(c.UserContext(), transfersvc.InitiateInput{
		OrganizationID: orgID,
		ActorID:        middleware.GetActorID(c),
		RecipientID:    recipientID,
		Reason:         req.Reason,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Ownership transfer initiated", t, nil)
}

// Accept POST /api/v1/ownership-transfers/:id/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, errInvalidTransferID.Error(), fiber.StatusBadRequest, nil)
	}
	t, err := h.Manager.Accept(c.UserContext(), id, middleware.GetActorID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ownership transfer accepted", t, nil)
}

// Reject POST /api/v1/ownership-transfers/:id/reject
func (h *Handlers) Reject(c *fiber.Ctx) error {
	id, req, err := parseRespond(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	t, err := h.Manager.Reject(c.UserContext(), id, middleware.GetActorID(c), req.ResponseReason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ownership transfer rejected", t, nil)
}

// Cancel POST /api/v1/ownership-transfers/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	id, req, err := parseRespond(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	t, err := h.Manager.Cancel(c.UserContext(), id, middleware.GetActorID(c), req.ResponseReason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ownership transfer cancelled", t, nil)
}

// History GET /api/v1/orgs/:org_id/ownership-transfers
func (h *Handlers) History(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", fiber.StatusBadRequest, nil)
	}
	hist, err := h.Manager.ListHistory(c.UserContext(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	entries, err := hist.Collect(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	if entries == nil {
		entries = []transfersvc.HistoryEntry{}
	}
	return response.Success(c, "Ownership transfer history", entries, fiber.Map{"count": len(entries)})
}

// parseRespond reads :id and an optional body.
func parseRespond(c *fiber.Ctx) (uuid.UUID, RespondRequest, error) {
	var req RespondRequest
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, req, errInvalidTransferID
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return uuid.Nil, req, errInvalidBody
		}
	}
	return id, req, nil
}
