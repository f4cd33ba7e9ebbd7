package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
	"github.com/spec-kit/coop-admin/internal/repository"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// BranchService coordinates branch workflows.
type BranchService struct {
	branches   repository.BranchRepository
	dispatcher events.Dispatcher
}

// BranchDependencies bundles collaborators for the branch service.
type BranchDependencies struct {
	BranchRepo repository.BranchRepository
	Dispatcher events.Dispatcher
}

// NewBranchService constructs the service.
func NewBranchService(deps BranchDependencies) *BranchService {
	return &BranchService{branches: deps.BranchRepo, dispatcher: deps.Dispatcher}
}

// BranchInput describes branch create/update payload.
type BranchInput struct {
	Code     string
	Name     string
	Address  string
	Phone    string
	IsActive *bool
}

// Create registers a new branch.
func (s *BranchService) Create(ctx context.Context, input BranchInput) (*domain.Branch, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("code and name required", nil)
	}

	if existing, err := s.branches.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, apperrors.NewConflict("branch code already in use", map[string]any{"code": code})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	branch := &domain.Branch{
		Code:     code,
		Name:     name,
		Address:  strings.TrimSpace(input.Address),
		Phone:    strings.TrimSpace(input.Phone),
		IsActive: true,
	}
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}

	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityCreated,
		events.Subject{Type: domain.EntityKindBranch, ID: branch.ID}, nil, branch.AuditFields())
	return branch, nil
}

// Update modifies an existing branch.
func (s *BranchService) Update(ctx context.Context, id int64, input BranchInput) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("branch", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("code and name required", nil)
	}
	if code != branch.Code {
		if existing, err := s.branches.GetByCode(ctx, code); err == nil && existing != nil {
			return nil, apperrors.NewConflict("branch code already in use", map[string]any{"code": code})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	before := branch.AuditFields()
	branch.Code = code
	branch.Name = name
	branch.Address = strings.TrimSpace(input.Address)
	branch.Phone = strings.TrimSpace(input.Phone)
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}

	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityUpdated,
		events.Subject{Type: domain.EntityKindBranch, ID: branch.ID}, before, branch.AuditFields())
	return branch, nil
}

// Delete removes a branch.
func (s *BranchService) Delete(ctx context.Context, id int64) error {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("branch", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	before := branch.AuditFields()
	if err := s.branches.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	publishLifecycle(ctx, s.dispatcher, events.EventEntityDeleted,
		events.Subject{Type: domain.EntityKindBranch, ID: branch.ID}, before, nil)
	return nil
}

// Get fetches one branch.
func (s *BranchService) Get(ctx context.Context, id int64) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("branch", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return branch, nil
}

// List returns paginated branches.
func (s *BranchService) List(ctx context.Context, limit, offset int) ([]domain.Branch, error) {
	branches, err := s.branches.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return branches, nil
}
