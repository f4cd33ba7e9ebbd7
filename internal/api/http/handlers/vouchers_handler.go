package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-admin/internal/api/dto"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/service"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// VouchersHandler manages voucher endpoints.
type VouchersHandler struct {
	service *service.VoucherService
}

// NewVouchersHandler constructs handler.
func NewVouchersHandler(voucherService *service.VoucherService) *VouchersHandler {
	return &VouchersHandler{service: voucherService}
}

// Create POST /vouchers.
func (h *VouchersHandler) Create(c *fiber.Ctx) error {
	var req dto.VoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	voucher, err := h.service.Create(c.UserContext(), voucherInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": voucherResponse(voucher)})
}

// Update PUT /vouchers/:id.
func (h *VouchersHandler) Update(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid voucher id", nil)
	}
	var req dto.VoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	voucher, err := h.service.Update(c.UserContext(), id, voucherInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": voucherResponse(voucher)})
}

// Delete DELETE /vouchers/:id.
func (h *VouchersHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid voucher id", nil)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get GET /vouchers/:id.
func (h *VouchersHandler) Get(c *fiber.Ctx) error {
	id, ok := parseInt64(c.Params("id"))
	if !ok {
		return apperrors.NewValidationError("invalid voucher id", nil)
	}
	voucher, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": voucherResponse(voucher)})
}

// List GET /vouchers.
func (h *VouchersHandler) List(c *fiber.Ctx) error {
	branchID, ok := parseInt64(c.Query("branch_id"))
	if !ok {
		return apperrors.NewValidationError("branch_id query parameter required", nil)
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	vouchers, err := h.service.ListByBranch(c.UserContext(), branchID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.VoucherResponse, 0, len(vouchers))
	for i := range vouchers {
		items = append(items, voucherResponse(&vouchers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func voucherInput(req dto.VoucherRequest) service.VoucherInput {
	lines := make([]service.VoucherLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.VoucherLineInput{
			ID:          line.ID,
			AccountCode: line.AccountCode,
			Particulars: line.Particulars,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	input := service.VoucherInput{
		BranchID:  req.BranchID,
		Narration: req.Narration,
		Status:    domain.VoucherStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Lines:     lines,
	}
	if req.VoucherDate != nil {
		input.VoucherDate = *req.VoucherDate
	}
	return input
}

func voucherResponse(voucher *domain.Voucher) dto.VoucherResponse {
	lines := make([]dto.VoucherLineResponse, 0, len(voucher.Lines))
	for _, line := range voucher.Lines {
		lines = append(lines, dto.VoucherLineResponse{
			ID:          line.ID,
			AccountCode: line.AccountCode,
			Particulars: line.Particulars,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return dto.VoucherResponse{
		ID:          voucher.ID,
		VoucherNo:   voucher.VoucherNo,
		BranchID:    voucher.BranchID,
		VoucherDate: voucher.VoucherDate,
		Narration:   voucher.Narration,
		Status:      string(voucher.Status),
		Lines:       lines,
		CreatedAt:   voucher.CreatedAt,
		UpdatedAt:   voucher.UpdatedAt,
	}
}
