package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coop-admin/internal/api/dto"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/service"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// AuditHandler serves the audit trail read surface.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{service: auditService}
}

// Feed GET /audit.
func (h *AuditHandler) Feed(c *fiber.Ctx) error {
	query := service.FeedQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if kindStr := strings.TrimSpace(c.Query("event_kind")); kindStr != "" {
		kind := domain.EventKind(strings.ToUpper(kindStr))
		query.EventKind = &kind
	}
	if actorID, ok := parseInt64(c.Query("actor_id")); ok {
		query.ActorID = &actorID
	}

	page, err := h.service.Feed(c.UserContext(), query)
	if err != nil {
		return err
	}

	items := make([]dto.BatchSummaryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, batchSummaryResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.FeedResponse{
		Items: items,
		Meta: dto.PaginationMeta{
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
			PageSize:    page.PageSize,
			Total:       page.Total,
		},
	}})
}

// EntityHistory GET /audit/entity.
func (h *AuditHandler) EntityHistory(c *fiber.Ctx) error {
	subjectType := strings.TrimSpace(c.Query("type"))
	subjectID, ok := parseInt64(c.Query("id"))
	if subjectType == "" || !ok {
		return apperrors.NewValidationError("type and id query parameters required", nil)
	}

	groups, err := h.service.EntityHistory(c.UserContext(), subjectType, subjectID)
	if err != nil {
		return err
	}

	resp := make([]dto.BatchGroupResponse, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		resp = append(resp, dto.BatchGroupResponse{
			BatchID:   group.BatchID,
			ActorID:   group.ActorID,
			StartedAt: group.StartedAt,
			Changes:   changeResponses(group.Changes),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// BatchDetail GET /audit/batches/:id.
func (h *AuditHandler) BatchDetail(c *fiber.Ctx) error {
	detail, err := h.service.BatchDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BatchDetailResponse{
		BatchID:    detail.BatchID,
		ActorID:    detail.ActorID,
		RecordedAt: detail.RecordedAt,
		RequestURL: detail.RequestURL,
		ClientIP:   detail.ClientIP,
		Device:     detail.Device,
		Changes:    changeResponses(detail.Changes),
	}})
}

func batchSummaryResponse(summary *service.BatchSummary) dto.BatchSummaryResponse {
	return dto.BatchSummaryResponse{
		BatchID:    summary.BatchID,
		ActorID:    summary.ActorID,
		RecordedAt: summary.RecordedAt,
		RequestURL: summary.RequestURL,
		ClientIP:   summary.ClientIP,
		Device:     summary.Device,
		Change:     changeResponse(summary.Change),
	}
}

func changeResponses(changes []service.ChangeView) []dto.ChangeResponse {
	resp := make([]dto.ChangeResponse, 0, len(changes))
	for _, change := range changes {
		resp = append(resp, changeResponse(change))
	}
	return resp
}

func changeResponse(change service.ChangeView) dto.ChangeResponse {
	return dto.ChangeResponse{
		Entity:    change.Entity,
		EventKind: string(change.EventKind),
		Before:    change.Before,
		After:     change.After,
	}
}
