package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-admin/internal/api/dto"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/service"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// BranchesHandler manages branch endpoints.
type BranchesHandler struct {
	service *service.BranchService
}

// NewBranchesHandler constructs handler.
func NewBranchesHandler(branchService *service.BranchService) *BranchesHandler {
	return &BranchesHandler{service: branchService}
}

// Create POST /branches.
func (h *BranchesHandler) Create(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	branch, err := h.service.Create(c.UserContext(), service.BranchInput{
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": branchResponse(branch)})
}

// Update PUT /branches/:id.
func (h *BranchesHandler) Update(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid branch id", nil)
	}
	var req dto.BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	branch, err := h.service.Update(c.UserContext(), id, service.BranchInput{
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": branchResponse(branch)})
}

// Delete DELETE /branches/:id.
func (h *BranchesHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid branch id", nil)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get GET /branches/:id.
func (h *BranchesHandler) Get(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid branch id", nil)
	}
	branch, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": branchResponse(branch)})
}

// List GET /branches.
func (h *BranchesHandler) List(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	branches, err := h.service.List(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		items = append(items, branchResponse(&branches[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func branchResponse(branch *domain.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:        branch.ID,
		Code:      branch.Code,
		Name:      branch.Name,
		Address:   branch.Address,
		Phone:     branch.Phone,
		IsActive:  branch.IsActive,
		CreatedAt: branch.CreatedAt,
		UpdatedAt: branch.UpdatedAt,
	}
}
