package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
	"github.com/spec-kit/coop-admin/internal/repository"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// VoucherService coordinates voucher header and line workflows. Saving a
// voucher mutates the header plus several lines within one request, which the
// audit trail groups under a single batch.
type VoucherService struct {
	vouchers   repository.VoucherRepository
	branches   repository.BranchRepository
	dispatcher events.Dispatcher
}

// VoucherDependencies bundles collaborators for the voucher service.
type VoucherDependencies struct {
	VoucherRepo repository.VoucherRepository
	BranchRepo  repository.BranchRepository
	Dispatcher  events.Dispatcher
}

// NewVoucherService constructs the service.
func NewVoucherService(deps VoucherDependencies) *VoucherService {
	return &VoucherService{
		vouchers:   deps.VoucherRepo,
		branches:   deps.BranchRepo,
		dispatcher: deps.Dispatcher,
	}
}

// VoucherLineInput describes one line of a voucher payload. A nil ID means a
// new line; an existing ID updates that line.
type VoucherLineInput struct {
	ID          *int64
	AccountCode string
	Particulars string
	Debit       float64
	Credit      float64
}

// VoucherInput describes voucher create/update payload.
type VoucherInput struct {
	BranchID    int64
	VoucherDate time.Time
	Narration   string
	Status      domain.VoucherStatus
	Lines       []VoucherLineInput
}

var allowedStatusChange = map[domain.VoucherStatus][]domain.VoucherStatus{
	domain.VoucherStatusDraft:    {domain.VoucherStatusApproved, domain.VoucherStatusVoid},
	domain.VoucherStatusApproved: {domain.VoucherStatusVoid},
	domain.VoucherStatusVoid:     {},
}

func isValidStatusChange(current, next domain.VoucherStatus) bool {
	for _, candidate := range allowedStatusChange[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create registers a voucher with its lines.
func (s *VoucherService) Create(ctx context.Context, input VoucherInput) (*domain.Voucher, error) {
	if input.BranchID <= 0 || len(input.Lines) == 0 {
		return nil, apperrors.NewValidationError("branch_id and at least one line required", nil)
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	branch, err := s.branches.GetByID(ctx, input.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("branch", map[string]any{"id": input.BranchID})
		}
		return nil, apperrors.MapError(err)
	}
	if !branch.IsActive {
		return nil, apperrors.NewValidationError("branch inactive", map[string]any{"branch_id": branch.ID})
	}

	voucherDate := input.VoucherDate
	if voucherDate.IsZero() {
		voucherDate = time.Now()
	}
	status := input.Status
	if status == "" {
		status = domain.VoucherStatusDraft
	}

	voucher := &domain.Voucher{
		VoucherNo:   generateVoucherNo(),
		BranchID:    input.BranchID,
		VoucherDate: voucherDate,
		Narration:   strings.TrimSpace(input.Narration),
		Status:      status,
	}

	if err := s.vouchers.Create(ctx, voucher); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityCreated,
		events.Subject{Type: domain.EntityKindVoucher, ID: voucher.ID}, nil, voucher.AuditFields())

	for _, lineInput := range input.Lines {
		line := &domain.VoucherLine{
			VoucherID:   voucher.ID,
			AccountCode: strings.TrimSpace(lineInput.AccountCode),
			Particulars: strings.TrimSpace(lineInput.Particulars),
			Debit:       lineInput.Debit,
			Credit:      lineInput.Credit,
		}
		if err := s.vouchers.CreateLine(ctx, line); err != nil {
			return nil, apperrors.MapError(err)
		}
		publishLifecycle(ctx, s.dispatcher, events.EventEntityCreated,
			events.Subject{Type: domain.EntityKindVoucherLine, ID: line.ID}, nil, line.AuditFields())
		voucher.Lines = append(voucher.Lines, *line)
	}

	return voucher, nil
}

// Update reconciles the header and line set against the payload: lines with
// an id are updated, lines without one are created, existing lines missing
// from the payload are removed.
func (s *VoucherService) Update(ctx context.Context, id int64, input VoucherInput) (*domain.Voucher, error) {
	voucher, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("voucher", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if input.BranchID <= 0 || len(input.Lines) == 0 {
		return nil, apperrors.NewValidationError("branch_id and at least one line required", nil)
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	if input.Status != "" && input.Status != voucher.Status && !isValidStatusChange(voucher.Status, input.Status) {
		return nil, apperrors.NewValidationError("invalid status change", map[string]any{
			"from": voucher.Status,
			"to":   input.Status,
		})
	}

	headerBefore := voucher.AuditFields()
	voucher.BranchID = input.BranchID
	if !input.VoucherDate.IsZero() {
		voucher.VoucherDate = input.VoucherDate
	}
	voucher.Narration = strings.TrimSpace(input.Narration)
	if input.Status != "" {
		voucher.Status = input.Status
	}

	if err := s.vouchers.Update(ctx, voucher); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityUpdated,
		events.Subject{Type: domain.EntityKindVoucher, ID: voucher.ID}, headerBefore, voucher.AuditFields())

	existing := make(map[int64]*domain.VoucherLine, len(voucher.Lines))
	for i := range voucher.Lines {
		existing[voucher.Lines[i].ID] = &voucher.Lines[i]
	}

	kept := map[int64]struct{}{}
	for _, lineInput := range input.Lines {
		if lineInput.ID != nil {
			line, ok := existing[*lineInput.ID]
			if !ok {
				return nil, apperrors.NewNotFound("voucher line", map[string]any{"id": *lineInput.ID})
			}
			kept[line.ID] = struct{}{}

			lineBefore := line.AuditFields()
			line.AccountCode = strings.TrimSpace(lineInput.AccountCode)
			line.Particulars = strings.TrimSpace(lineInput.Particulars)
			line.Debit = lineInput.Debit
			line.Credit = lineInput.Credit

			if err := s.vouchers.UpdateLine(ctx, line); err != nil {
				return nil, apperrors.MapError(err)
			}
			publishLifecycle(ctx, s.dispatcher, events.EventEntityUpdated,
				events.Subject{Type: domain.EntityKindVoucherLine, ID: line.ID}, lineBefore, line.AuditFields())
			continue
		}

		line := &domain.VoucherLine{
			VoucherID:   voucher.ID,
			AccountCode: strings.TrimSpace(lineInput.AccountCode),
			Particulars: strings.TrimSpace(lineInput.Particulars),
			Debit:       lineInput.Debit,
			Credit:      lineInput.Credit,
		}
		if err := s.vouchers.CreateLine(ctx, line); err != nil {
			return nil, apperrors.MapError(err)
		}
		kept[line.ID] = struct{}{}
		publishLifecycle(ctx, s.dispatcher, events.EventEntityCreated,
			events.Subject{Type: domain.EntityKindVoucherLine, ID: line.ID}, nil, line.AuditFields())
	}

	for lineID, line := range existing {
		if _, keep := kept[lineID]; keep {
			continue
		}
		lineBefore := line.AuditFields()
		if err := s.vouchers.DeleteLine(ctx, lineID); err != nil {
			return nil, apperrors.MapError(err)
		}
		publishLifecycle(ctx, s.dispatcher, events.EventEntityDeleted,
			events.Subject{Type: domain.EntityKindVoucherLine, ID: lineID}, lineBefore, nil)
	}

	return s.Get(ctx, voucher.ID)
}

// Delete removes a voucher and its lines.
func (s *VoucherService) Delete(ctx context.Context, id int64) error {
	voucher, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("voucher", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	for i := range voucher.Lines {
		line := &voucher.Lines[i]
		lineBefore := line.AuditFields()
		if err := s.vouchers.DeleteLine(ctx, line.ID); err != nil {
			return apperrors.MapError(err)
		}
		publishLifecycle(ctx, s.dispatcher, events.EventEntityDeleted,
			events.Subject{Type: domain.EntityKindVoucherLine, ID: line.ID}, lineBefore, nil)
	}

	headerBefore := voucher.AuditFields()
	if err := s.vouchers.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityDeleted,
		events.Subject{Type: domain.EntityKindVoucher, ID: voucher.ID}, headerBefore, nil)
	return nil
}

// Get fetches one voucher with its lines.
func (s *VoucherService) Get(ctx context.Context, id int64) (*domain.Voucher, error) {
	voucher, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("voucher", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return voucher, nil
}

// ListByBranch returns paginated vouchers for a branch.
func (s *VoucherService) ListByBranch(ctx context.Context, branchID int64, limit, offset int) ([]domain.Voucher, error) {
	vouchers, err := s.vouchers.ListByBranch(ctx, branchID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return vouchers, nil
}

func validateLines(lines []VoucherLineInput) error {
	for i, line := range lines {
		if strings.TrimSpace(line.AccountCode) == "" {
			return apperrors.NewValidationError("account_code required on every line", map[string]any{"line": i})
		}
		if line.Debit < 0 || line.Credit < 0 {
			return apperrors.NewValidationError("debit and credit must not be negative", map[string]any{"line": i})
		}
		if line.Debit == 0 && line.Credit == 0 {
			return apperrors.NewValidationError("each line needs a debit or credit amount", map[string]any{"line": i})
		}
	}
	return nil
}

func generateVoucherNo() string {
	return "JV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
