package chat_service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/room"
)

type SupportService struct {
	Chat *ChatService
}

func NewSupportService(chat *ChatService) SupportServiceContract {
	return &SupportService{Chat: chat}
}

func (s *SupportService) CreateTicket(ctx context.Context, actor Actor, req chat_dto.CreateTicketRequest) (*entity.SupportTicket, *app_error.AppError) {
	ticket := &entity.SupportTicket{
		TicketID:    uuid.NewString(),
		ReporterID:  actor.UserID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      entity.TicketOpen,
		Priority:    req.Priority,
	}
	if ticket.Priority == "" {
		ticket.Priority = "medium"
	}
	if req.AssignedTo != "" {
		ticket.AssignedTo = &req.AssignedTo
	}

	if appErr := s.Chat.ChatRepo.CreateTicket(ctx, ticket); appErr != nil {
		return nil, appErr
	}

	roomID := room.SupportID(ticket.TicketID)
	participants := []entity.RoomParticipant{
		{RoomID: roomID, UserID: actor.UserID, DisplayName: actor.DisplayName, Role: string(actor.Role)},
	}
	if ticket.AssignedTo != nil {
		participants = append(participants, entity.RoomParticipant{
			RoomID: roomID,
			UserID: *ticket.AssignedTo,
			Role:   string(room.RoleAreaManager),
		})
	}

	if _, appErr := s.Chat.ChatRepo.EnsureRoom(ctx, &entity.Room{
		ID:        roomID,
		Kind:      string(room.KindSupport),
		Status:    room.StatusActive,
		CreatedBy: actor.UserID,
	}, participants); appErr != nil {
		return nil, appErr
	}

	return ticket, nil
}

func (s *SupportService) UpdateTicketStatus(ctx context.Context, actor Actor, ticketID string, req chat_dto.UpdateTicketStatusRequest) (*entity.SupportTicket, *app_error.AppError) {
	if actor.Role != room.RoleAreaManager && actor.Role != room.RoleSuperAdmin {
		return nil, app_error.NewForbidden("only staff can change ticket status", "role")
	}
	if !entity.ValidTicketStatus(req.Status) {
		return nil, app_error.NewValidation("unknown ticket status", "status")
	}

	before, appErr := s.Chat.ChatRepo.FindTicket(ctx, ticketID)
	if appErr != nil {
		return nil, appErr
	}

	ticket, appErr := s.Chat.ChatRepo.UpdateTicketStatus(ctx, ticketID, req.Status)
	if appErr != nil {
		return nil, appErr
	}

	roomID := room.SupportID(ticket.TicketID)
	if req.Status == entity.TicketClosed {
		if appErr := s.Chat.ChatRepo.SetRoomStatus(ctx, roomID, room.StatusClosed); appErr != nil {
			log.Warn().Str("room_id", roomID).Msg("failed to close ticket room")
		}
	}

	s.enqueueStatusChanged(ctx, roomID, ticket.TicketID, before.Status, ticket.Status, actor.UserID)
	return ticket, nil
}

func (s *SupportService) enqueueStatusChanged(ctx context.Context, roomID, ticketID, oldStatus, newStatus, changedBy string) {
	if s.Chat.Producer == nil {
		return
	}
	job := queue.NewJob(queue.JobNotifyStatusChanged, queue.StatusChangedPayload{
		RoomID:    roomID,
		Entity:    "ticket",
		EntityID:  ticketID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
	}, queue.PriorityNormal, s.Chat.maxRetry(), s.Chat.jobLifetime())

	if err := s.Chat.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("ticket_id", ticketID).Msg("failed to enqueue ticket status notification")
	}
}

func (s *SupportService) ListTickets(ctx context.Context, actor Actor, status string) ([]entity.SupportTicket, *app_error.AppError) {
	userID := actor.UserID
	if actor.Role == room.RoleAreaManager || actor.Role == room.RoleSuperAdmin {
		userID = ""
	}
	return s.Chat.ChatRepo.ListTickets(ctx, status, userID)
}
