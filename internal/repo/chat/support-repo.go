package chat_repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"gorm.io/gorm"
)

// Group, ticket and inquiry records are the kind-specific sub-state
// behind their rooms. The room row owns lifecycle (active/closed),
// these own domain state (ticket status, inquiry decision).

func (r *ChatRepo) CreateGroup(ctx context.Context, g *entity.GroupChat) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(g).Error; err != nil {
		log.Error().Err(err).Str("group_id", g.GroupID).Msg("failed to create group")
		return app_error.NewPersistence("failed to create group", "db-error")
	}
	return nil
}

func (r *ChatRepo) FindGroup(ctx context.Context, groupID string) (*entity.GroupChat, *app_error.AppError) {
	var g entity.GroupChat
	if err := r.AppState.DB.WithContext(ctx).Where("group_id = ?", groupID).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFound("group not found", "not-found")
		}
		return nil, app_error.NewPersistence("failed to fetch group", "db-error")
	}
	return &g, nil
}

func (r *ChatRepo) ListGroupsForUser(ctx context.Context, userID string) ([]entity.GroupChat, *app_error.AppError) {
	var groups []entity.GroupChat
	err := r.AppState.DB.WithContext(ctx).
		Joins("JOIN room_participants rp ON rp.room_id = CONCAT('GROUP_', group_chats.group_id)").
		Where("rp.user_id = ? AND rp.left_at IS NULL", userID).
		Order("group_chats.last_message_at DESC NULLS LAST").
		Find(&groups).Error
	if err != nil {
		return nil, app_error.NewPersistence("failed to list groups", "db-error")
	}
	return groups, nil
}

func (r *ChatRepo) TouchGroupActivity(ctx context.Context, groupID string, at time.Time) error {
	return r.AppState.DB.WithContext(ctx).Model(&entity.GroupChat{}).
		Where("group_id = ?", groupID).
		Updates(map[string]any{
			"last_message_at": at,
			"message_count":   gorm.Expr("message_count + ?", 1),
		}).Error
}

func (r *ChatRepo) CreateTicket(ctx context.Context, t *entity.SupportTicket) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(t).Error; err != nil {
		log.Error().Err(err).Str("ticket_id", t.TicketID).Msg("failed to create ticket")
		return app_error.NewPersistence("failed to create ticket", "db-error")
	}
	return nil
}

func (r *ChatRepo) FindTicket(ctx context.Context, ticketID string) (*entity.SupportTicket, *app_error.AppError) {
	var t entity.SupportTicket
	if err := r.AppState.DB.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFound("ticket not found", "not-found")
		}
		return nil, app_error.NewPersistence("failed to fetch ticket", "db-error")
	}
	return &t, nil
}

func (r *ChatRepo) ListTickets(ctx context.Context, status, userID string) ([]entity.SupportTicket, *app_error.AppError) {
	q := r.AppState.DB.WithContext(ctx).Model(&entity.SupportTicket{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if userID != "" {
		q = q.Where("reporter_id = ? OR assigned_to = ?", userID, userID)
	}
	var tickets []entity.SupportTicket
	if err := q.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, app_error.NewPersistence("failed to list tickets", "db-error")
	}
	return tickets, nil
}

func (r *ChatRepo) UpdateTicketStatus(ctx context.Context, ticketID, status string) (*entity.SupportTicket, *app_error.AppError) {
	updates := map[string]any{"status": status}
	now := time.Now()
	switch status {
	case entity.TicketInProgress:
		updates["responded_at"] = now
	case entity.TicketClosed, entity.TicketResolved:
		updates["closed_at"] = now
	}

	res := r.AppState.DB.WithContext(ctx).Model(&entity.SupportTicket{}).
		Where("ticket_id = ?", ticketID).
		Updates(updates)
	if res.Error != nil {
		return nil, app_error.NewPersistence("failed to update ticket status", "db-error")
	}
	if res.RowsAffected == 0 {
		return nil, app_error.NewNotFound("ticket not found", "not-found")
	}
	return r.FindTicket(ctx, ticketID)
}

func (r *ChatRepo) TouchTicketActivity(ctx context.Context, ticketID string, at time.Time) error {
	return r.AppState.DB.WithContext(ctx).Model(&entity.SupportTicket{}).
		Where("ticket_id = ?", ticketID).
		Update("message_count", gorm.Expr("message_count + ?", 1)).Error
}
