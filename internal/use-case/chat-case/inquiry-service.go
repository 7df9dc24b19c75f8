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
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

type InquiryService struct {
	Chat *ChatService
}

func NewInquiryService(chat *ChatService) InquiryServiceContract {
	return &InquiryService{Chat: chat}
}

// SendInquiry creates the inquiry record and its room in one go. The
// room exists immediately so history and the owner's view work, but
// the send gate keeps it silent until the owner accepts.
func (s *InquiryService) SendInquiry(ctx context.Context, actor Actor, req chat_dto.SendInquiryRequest) (*entity.PropertyInquiry, *app_error.AppError) {
	inquiry := &entity.PropertyInquiry{
		InquiryID:      uuid.NewString(),
		PropertyID:     req.PropertyID,
		OwnerID:        req.OwnerID,
		VisitorID:      actor.UserID,
		VisitorEmail:   req.VisitorEmail,
		VisitorPhone:   req.VisitorPhone,
		RequestMessage: req.Message,
		Status:         room.InquiryRequested,
	}

	if appErr := s.Chat.ChatRepo.CreateInquiry(ctx, inquiry); appErr != nil {
		return nil, appErr
	}

	roomID := room.InquiryID(inquiry.InquiryID)
	if _, appErr := s.Chat.ChatRepo.EnsureRoom(ctx, &entity.Room{
		ID:         roomID,
		Kind:       string(room.KindInquiry),
		Status:     room.StatusActive,
		PropertyID: req.PropertyID,
		CreatedBy:  actor.UserID,
	}, []entity.RoomParticipant{
		{RoomID: roomID, UserID: actor.UserID, DisplayName: actor.DisplayName, Role: string(room.RoleAnonymous)},
		{RoomID: roomID, UserID: req.OwnerID, Role: string(room.RoleOwner)},
	}); appErr != nil {
		return nil, appErr
	}

	s.enqueueInquiryAlert(ctx, inquiry)
	return inquiry, nil
}

func (s *InquiryService) enqueueInquiryAlert(ctx context.Context, inquiry *entity.PropertyInquiry) {
	if s.Chat.Producer == nil {
		return
	}
	job := queue.NewJob(queue.JobInquiryAlert, queue.InquiryAlertPayload{
		OwnerID:      inquiry.OwnerID,
		InquiryID:    inquiry.InquiryID,
		PropertyID:   inquiry.PropertyID,
		VisitorEmail: inquiry.VisitorEmail,
		Message:      inquiry.RequestMessage,
	}, queue.PriorityNormal, s.Chat.maxRetry(), s.Chat.jobLifetime())

	if err := s.Chat.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("inquiry_id", inquiry.InquiryID).Msg("failed to enqueue inquiry alert")
	}
}

// RespondInquiry settles a pending inquiry. The decision is final:
// the repo guard refuses a second transition.
func (s *InquiryService) RespondInquiry(ctx context.Context, actor Actor, inquiryID string, req chat_dto.RespondInquiryRequest) (*entity.PropertyInquiry, *app_error.AppError) {
	existing, appErr := s.Chat.ChatRepo.FindInquiry(ctx, inquiryID)
	if appErr != nil {
		return nil, appErr
	}
	if existing.OwnerID != actor.UserID && !actor.Role.IsMonitor() {
		return nil, app_error.NewForbidden("only the property owner can respond", "inquiry_id")
	}
	if req.Status != room.InquiryAccepted && req.Status != room.InquiryRejected {
		return nil, app_error.NewValidation("status must be accepted or rejected", "status")
	}

	inquiry, appErr := s.Chat.ChatRepo.RespondInquiry(ctx, inquiryID, req.Status)
	if appErr != nil {
		return nil, appErr
	}

	roomID := room.InquiryID(inquiry.InquiryID)
	if req.Status == room.InquiryRejected {
		if appErr := s.Chat.ChatRepo.SetRoomStatus(ctx, roomID, room.StatusArchived); appErr != nil {
			log.Warn().Str("room_id", roomID).Msg("failed to archive rejected inquiry room")
		}
	}

	// the visitor may not be subscribed to the room yet, tell them
	// directly as well
	event := websocket.NewStatusChangedEvent(roomID, "inquiry", inquiry.InquiryID, inquiry.Status)
	s.Chat.Hub.Publish(roomID, event)
	s.Chat.Hub.BroadcastToUser(inquiry.VisitorID, event)

	s.enqueueStatusChanged(ctx, roomID, inquiry, existing.Status, actor.UserID)
	return inquiry, nil
}

func (s *InquiryService) enqueueStatusChanged(ctx context.Context, roomID string, inquiry *entity.PropertyInquiry, oldStatus, changedBy string) {
	if s.Chat.Producer == nil {
		return
	}
	job := queue.NewJob(queue.JobNotifyStatusChanged, queue.StatusChangedPayload{
		RoomID:    roomID,
		Entity:    "inquiry",
		EntityID:  inquiry.InquiryID,
		OldStatus: oldStatus,
		NewStatus: inquiry.Status,
		ChangedBy: changedBy,
	}, queue.PriorityNormal, s.Chat.maxRetry(), s.Chat.jobLifetime())

	if err := s.Chat.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("inquiry_id", inquiry.InquiryID).Msg("failed to enqueue inquiry status notification")
	}
}

func (s *InquiryService) ListInquiries(ctx context.Context, actor Actor, propertyID, status string) ([]entity.PropertyInquiry, *app_error.AppError) {
	if propertyID != "" {
		if actor.Role != room.RoleOwner && !actor.Role.IsMonitor() {
			return nil, app_error.NewForbidden("only owners can list property inquiries", "property_id")
		}
		return s.Chat.ChatRepo.ListInquiriesForProperty(ctx, propertyID, status)
	}
	return s.Chat.ChatRepo.ListInquiriesForVisitor(ctx, actor.UserID)
}
