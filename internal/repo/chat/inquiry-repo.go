package chat_repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
	"gorm.io/gorm"
)

func (r *ChatRepo) CreateInquiry(ctx context.Context, q *entity.PropertyInquiry) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(q).Error; err != nil {
		log.Error().Err(err).Str("inquiry_id", q.InquiryID).Msg("failed to create inquiry")
		return app_error.NewPersistence("failed to create inquiry", "db-error")
	}
	return nil
}

func (r *ChatRepo) FindInquiry(ctx context.Context, inquiryID string) (*entity.PropertyInquiry, *app_error.AppError) {
	var q entity.PropertyInquiry
	if err := r.AppState.DB.WithContext(ctx).Where("inquiry_id = ?", inquiryID).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFound("inquiry not found", "not-found")
		}
		return nil, app_error.NewPersistence("failed to fetch inquiry", "db-error")
	}
	return &q, nil
}

// RespondInquiry flips requested -> accepted|rejected. The WHERE guard
// on status makes the decision idempotent and final: a second respond
// on the same inquiry affects zero rows.
func (r *ChatRepo) RespondInquiry(ctx context.Context, inquiryID, status string) (*entity.PropertyInquiry, *app_error.AppError) {
	now := time.Now()
	res := r.AppState.DB.WithContext(ctx).Model(&entity.PropertyInquiry{}).
		Where("inquiry_id = ? AND status = ?", inquiryID, room.InquiryRequested).
		Updates(map[string]any{
			"status":       status,
			"responded_at": now,
			"chat_started": status == room.InquiryAccepted,
		})
	if res.Error != nil {
		return nil, app_error.NewPersistence("failed to respond to inquiry", "db-error")
	}
	if res.RowsAffected == 0 {
		existing, appErr := r.FindInquiry(ctx, inquiryID)
		if appErr != nil {
			return nil, appErr
		}
		return nil, app_error.NewValidation("inquiry already "+existing.Status, "status")
	}
	return r.FindInquiry(ctx, inquiryID)
}

func (r *ChatRepo) ListInquiriesForProperty(ctx context.Context, propertyID, status string) ([]entity.PropertyInquiry, *app_error.AppError) {
	q := r.AppState.DB.WithContext(ctx).Where("property_id = ?", propertyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var inquiries []entity.PropertyInquiry
	if err := q.Order("created_at DESC").Find(&inquiries).Error; err != nil {
		return nil, app_error.NewPersistence("failed to list inquiries", "db-error")
	}
	return inquiries, nil
}

func (r *ChatRepo) ListInquiriesForVisitor(ctx context.Context, visitorID string) ([]entity.PropertyInquiry, *app_error.AppError) {
	var inquiries []entity.PropertyInquiry
	err := r.AppState.DB.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, app_error.NewPersistence("failed to list inquiries", "db-error")
	}
	return inquiries, nil
}

func (r *ChatRepo) TouchInquiryActivity(ctx context.Context, inquiryID string, at time.Time) error {
	return r.AppState.DB.WithContext(ctx).Model(&entity.PropertyInquiry{}).
		Where("inquiry_id = ?", inquiryID).
		Update("message_count", gorm.Expr("message_count + ?", 1)).Error
}
