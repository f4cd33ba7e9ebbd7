package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
	"github.com/spec-kit/coop-admin/internal/repository"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// CustomerService coordinates member workflows.
type CustomerService struct {
	customers  repository.CustomerRepository
	branches   repository.BranchRepository
	dispatcher events.Dispatcher
}

// CustomerDependencies bundles collaborators for the customer service.
type CustomerDependencies struct {
	CustomerRepo repository.CustomerRepository
	BranchRepo   repository.BranchRepository
	Dispatcher   events.Dispatcher
}

// NewCustomerService constructs the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	return &CustomerService{
		customers:  deps.CustomerRepo,
		branches:   deps.BranchRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CustomerInput describes customer create/update payload.
type CustomerInput struct {
	BranchID int64
	MemberNo string
	FullName string
	Email    string
	Phone    string
	Status   domain.CustomerStatus
}

// Create registers a new member. A member number is generated when absent.
func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || input.BranchID <= 0 {
		return nil, apperrors.NewValidationError("branch_id and full_name required", nil)
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

	memberNo := strings.TrimSpace(input.MemberNo)
	if memberNo == "" {
		memberNo = generateMemberNo()
	} else if existing, err := s.customers.GetByMemberNo(ctx, memberNo); err == nil && existing != nil {
		return nil, apperrors.NewConflict("member number already in use", map[string]any{"member_no": memberNo})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	status := input.Status
	if status == "" {
		status = domain.CustomerStatusActive
	}

	customer := &domain.Customer{
		BranchID: input.BranchID,
		MemberNo: memberNo,
		FullName: fullName,
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		Status:   status,
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityCreated,
		events.Subject{Type: domain.EntityKindCustomer, ID: customer.ID}, nil, customer.AuditFields())
	return customer, nil
}

// Update modifies an existing member.
func (s *CustomerService) Update(ctx context.Context, id int64, input CustomerInput) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || input.BranchID <= 0 {
		return nil, apperrors.NewValidationError("branch_id and full_name required", nil)
	}
	if input.Status != "" {
		switch input.Status {
		case domain.CustomerStatusActive, domain.CustomerStatusInactive, domain.CustomerStatusSuspended:
		default:
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
		}
	}

	before := customer.AuditFields()
	customer.BranchID = input.BranchID
	customer.FullName = fullName
	customer.Email = strings.TrimSpace(input.Email)
	customer.Phone = strings.TrimSpace(input.Phone)
	if input.Status != "" {
		customer.Status = input.Status
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityUpdated,
		events.Subject{Type: domain.EntityKindCustomer, ID: customer.ID}, before, customer.AuditFields())
	return customer, nil
}

// Delete removes a member.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	before := customer.AuditFields()
	if err := s.customers.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityDeleted,
		events.Subject{Type: domain.EntityKindCustomer, ID: customer.ID}, before, nil)
	return nil
}

// Get fetches one member.
func (s *CustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// List returns members matching the filter.
func (s *CustomerService) List(ctx context.Context, filter repository.CustomerFilter) ([]domain.Customer, error) {
	customers, err := s.customers.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return customers, nil
}

func generateMemberNo() string {
	return "MBR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
