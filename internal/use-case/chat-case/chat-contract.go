package chat_service

import (
	"context"

	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
)

// Actor is the authenticated principal behind a request or a websocket
// session.
type Actor struct {
	UserID      string
	DisplayName string
	Role        room.Role
}

type ChatServiceContract interface {
	CreateOrGetRoom(ctx context.Context, actor Actor, req chat_dto.CreateRoomRequest) (*chat_dto.RoomResponse, *app_error.AppError)
	JoinRoom(ctx context.Context, actor Actor, roomID string) (*entity.Room, *app_error.AppError)
	SendMessage(ctx context.Context, actor Actor, roomID string, req chat_dto.SendMessageRequest) (*chat_dto.SendMessageResponse, *app_error.AppError)
	GetMessages(ctx context.Context, actor Actor, roomID string, req chat_dto.GetMessagesRequest) (*chat_dto.GetMessagesResponse, *app_error.AppError)
	ListRooms(ctx context.Context, actor Actor) ([]chat_dto.RoomResponse, *app_error.AppError)
	CloseRoom(ctx context.Context, actor Actor, roomID, reason string) *app_error.AppError
	ReopenRoom(ctx context.Context, actor Actor, roomID string) *app_error.AppError
	MarkRead(ctx context.Context, actor Actor, roomID string) (int64, *app_error.AppError)
	ScheduleVisit(ctx context.Context, actor Actor, roomID string, req chat_dto.ScheduleVisitRequest) (*entity.ScheduledVisit, *app_error.AppError)
	ListVisits(ctx context.Context, actor Actor, roomID string) ([]entity.ScheduledVisit, *app_error.AppError)
}

type GroupServiceContract interface {
	CreateGroup(ctx context.Context, actor Actor, req chat_dto.CreateGroupRequest) (*chat_dto.RoomResponse, *app_error.AppError)
	AddGroupMember(ctx context.Context, actor Actor, groupID string, req chat_dto.AddGroupMemberRequest) *app_error.AppError
	ListGroups(ctx context.Context, actor Actor) ([]entity.GroupChat, *app_error.AppError)
}

type SupportServiceContract interface {
	CreateTicket(ctx context.Context, actor Actor, req chat_dto.CreateTicketRequest) (*entity.SupportTicket, *app_error.AppError)
	UpdateTicketStatus(ctx context.Context, actor Actor, ticketID string, req chat_dto.UpdateTicketStatusRequest) (*entity.SupportTicket, *app_error.AppError)
	ListTickets(ctx context.Context, actor Actor, status string) ([]entity.SupportTicket, *app_error.AppError)
}

type InquiryServiceContract interface {
	SendInquiry(ctx context.Context, actor Actor, req chat_dto.SendInquiryRequest) (*entity.PropertyInquiry, *app_error.AppError)
	RespondInquiry(ctx context.Context, actor Actor, inquiryID string, req chat_dto.RespondInquiryRequest) (*entity.PropertyInquiry, *app_error.AppError)
	ListInquiries(ctx context.Context, actor Actor, propertyID, status string) ([]entity.PropertyInquiry, *app_error.AppError)
}
