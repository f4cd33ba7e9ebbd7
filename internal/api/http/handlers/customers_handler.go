package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-admin/internal/api/dto"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/repository"
	"github.com/spec-kit/coop-admin/internal/service"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// CustomersHandler manages member endpoints.
type CustomersHandler struct {
	service *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{service: customerService}
}

// Create POST /customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customer, err := h.service.Create(c.UserContext(), customerInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": customerResponse(customer)})
}

// Update PUT /customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid customer id", nil)
	}
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customer, err := h.service.Update(c.UserContext(), id, customerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

// Delete DELETE /customers/:id.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid customer id", nil)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get GET /customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid customer id", nil)
	}
	customer, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

// List GET /customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	filter := repository.CustomerFilter{}
	if branchID, ok := parseInt64(c.Query("branch_id")); ok {
		filter.BranchID = &branchID
	}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.CustomerStatus(strings.ToUpper(statusStr))
		filter.Status = &status
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	customers, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, customerResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func customerInput(req dto.CustomerRequest) service.CustomerInput {
	return service.CustomerInput{
		BranchID: req.BranchID,
		MemberNo: req.MemberNo,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   domain.CustomerStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	}
}

func customerResponse(customer *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        customer.ID,
		BranchID:  customer.BranchID,
		MemberNo:  customer.MemberNo,
		FullName:  customer.FullName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Status:    string(customer.Status),
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}
