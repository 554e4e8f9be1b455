package handlers

import (
	"errors"

	"gatherly-api/internal/core/domain"
	"gatherly-api/internal/core/services"
	"gatherly-api/internal/pkg/pagination"
	"gatherly-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GroupHandler handles group funding endpoints
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// Create handles group creation from the wizard payload
// @Summary Create a group
// @Description Create a funding group; the creator automatically takes the first slot
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateGroupInput true "Group data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /groups [post]
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateGroupInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	group, member, err := h.groupService.Create(c.Context(), userID, &req)
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Created(c, "Group created successfully", fiber.Map{
		"group":  group,
		"member": member,
	})
}

// Preview handles live wizard preview
// @Summary Preview a group draft
// @Description Validate a draft payload and return the derived cost per slot without persisting
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateGroupInput true "Draft data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /groups/preview [post]
func (h *GroupHandler) Preview(c *fiber.Ctx) error {
	var req services.CreateGroupInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.groupService.Preview(&req)
	if err != nil {
		return response.InternalServerError(c, "Failed to preview group")
	}

	return response.Success(c, "Preview generated", out)
}

// List handles listing groups
// @Summary List groups
// @Description List groups newest first, paginated
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /groups [get]
func (h *GroupHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	groups, total, err := h.groupService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list groups")
	}

	return response.Success(c, "Groups retrieved successfully", pagination.NewResponse(groups, params, total))
}

// Get handles fetching a single group
// @Summary Get a group
// @Description Get a group with its funding progress
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *fiber.Ctx) error {
	group, err := h.groupService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Success(c, "Group retrieved successfully", fiber.Map{
		"group": group,
	})
}

// Join handles claiming slots on a group
// @Summary Join a group
// @Description Claim one or more slots; payment is taken per slot at the fixed rate
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param body body services.JoinInput true "Join data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /groups/{id}/join [post]
func (h *GroupHandler) Join(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.JoinInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SlotsCount == 0 {
		req.SlotsCount = 1
	}

	member, err := h.groupService.Join(c.Context(), c.Params("id"), userID, &req)
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Created(c, "Joined group successfully", fiber.Map{
		"member": member,
	})
}

// Members handles listing a group's members
// @Summary List group members
// @Description List a group's members in join order
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id}/members [get]
func (h *GroupHandler) Members(c *fiber.Ctx) error {
	members, err := h.groupService.Members(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Success(c, "Members retrieved successfully", fiber.Map{
		"members": members,
	})
}

// UpdateMember handles patching a membership
// @Summary Update a membership
// @Description Update own payment status or method
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param body body services.UpdateMemberInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [patch]
func (h *GroupHandler) UpdateMember(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.groupService.UpdateMember(c.Context(), c.Params("id"), userID, &req)
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Success(c, "Member updated successfully", fiber.Map{
		"member": member,
	})
}

// AddItem handles attaching an item to a group
// @Summary Add a group item
// @Description Attach item metadata to a group (creator only)
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param body body services.AddItemInput true "Item data"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id}/items [post]
func (h *GroupHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.AddItemInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.groupService.AddItem(c.Context(), c.Params("id"), userID, &req)
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Created(c, "Item added successfully", fiber.Map{
		"item": item,
	})
}

// Items handles listing a group's items
// @Summary List group items
// @Description List the items attached to a group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{id}/items [get]
func (h *GroupHandler) Items(c *fiber.Ctx) error {
	items, err := h.groupService.Items(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapGroupError(c, err)
	}

	return response.Success(c, "Items retrieved successfully", fiber.Map{
		"items": items,
	})
}

// mapGroupError translates service and domain errors to HTTP responses
func (h *GroupHandler) mapGroupError(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return response.ValidationFailed(c, vErr.Field, vErr.Message)
	case errors.Is(err, services.ErrGroupNotFound):
		return response.NotFound(c, "Group not found")
	case errors.Is(err, services.ErrMemberNotFound):
		return response.NotFound(c, "Member not found")
	case errors.Is(err, services.ErrNotAuthorized):
		return response.Forbidden(c, "You are not allowed to do that")
	case errors.Is(err, domain.ErrSlotsExhausted):
		return response.Conflict(c, "Not enough slots left in this group")
	case errors.Is(err, domain.ErrGroupClosed):
		return response.Conflict(c, "This group has closed")
	case errors.Is(err, services.ErrJoinConflict):
		return response.Conflict(c, "Group is busy, please try again")
	default:
		return response.InternalServerError(c, "Something went wrong")
	}
}
