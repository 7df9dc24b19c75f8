package chat_repo

import (
	"context"
	"time"

	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// The repo contract is split by concern so the dual-write coordinator
// and the kind-specific services depend only on what they use (and
// tests fake only what they need).

type RoomRepo interface {
	// EnsureRoom is create-or-fetch with upsert semantics: concurrent
	// calls for the same id produce exactly one record, later callers
	// get the existing one back.
	EnsureRoom(ctx context.Context, room *entity.Room, participants []entity.RoomParticipant) (*entity.Room, *app_error.AppError)
	FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError)
	ListRoomsForUser(ctx context.Context, userID string) ([]entity.Room, *app_error.AppError)
	FindRoomParticipants(ctx context.Context, roomID string) ([]entity.RoomParticipant, *app_error.AppError)
	IsParticipant(ctx context.Context, roomID, userID string) (bool, *app_error.AppError)
	AddParticipant(ctx context.Context, p *entity.RoomParticipant) *app_error.AppError
	SetRoomStatus(ctx context.Context, roomID, status string) *app_error.AppError
	// TouchRoomActivity bumps last-activity and the message counter.
	// Best-effort: callers may ignore the error.
	TouchRoomActivity(ctx context.Context, roomID string, at time.Time) error
	ScheduleVisit(ctx context.Context, v *entity.ScheduledVisit) *app_error.AppError
	ListVisits(ctx context.Context, roomID string) ([]entity.ScheduledVisit, *app_error.AppError)
}

type MessageRepo interface {
	InsertMessage(ctx context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError)
	// ListMessages returns up to limit messages in ascending timestamp
	// order, optionally only those older than beforeID.
	ListMessages(ctx context.Context, roomID string, limit int, beforeID *string) ([]entity.Message, *app_error.AppError)
	MarkMessagesRead(ctx context.Context, roomID, readerID string) (int64, *app_error.AppError)
}

type GroupRepo interface {
	CreateGroup(ctx context.Context, g *entity.GroupChat) *app_error.AppError
	FindGroup(ctx context.Context, groupID string) (*entity.GroupChat, *app_error.AppError)
	ListGroupsForUser(ctx context.Context, userID string) ([]entity.GroupChat, *app_error.AppError)
	TouchGroupActivity(ctx context.Context, groupID string, at time.Time) error
}

type TicketRepo interface {
	CreateTicket(ctx context.Context, t *entity.SupportTicket) *app_error.AppError
	FindTicket(ctx context.Context, ticketID string) (*entity.SupportTicket, *app_error.AppError)
	ListTickets(ctx context.Context, status, userID string) ([]entity.SupportTicket, *app_error.AppError)
	UpdateTicketStatus(ctx context.Context, ticketID, status string) (*entity.SupportTicket, *app_error.AppError)
	TouchTicketActivity(ctx context.Context, ticketID string, at time.Time) error
}

type InquiryRepo interface {
	CreateInquiry(ctx context.Context, q *entity.PropertyInquiry) *app_error.AppError
	FindInquiry(ctx context.Context, inquiryID string) (*entity.PropertyInquiry, *app_error.AppError)
	RespondInquiry(ctx context.Context, inquiryID, status string) (*entity.PropertyInquiry, *app_error.AppError)
	ListInquiriesForProperty(ctx context.Context, propertyID, status string) ([]entity.PropertyInquiry, *app_error.AppError)
	ListInquiriesForVisitor(ctx context.Context, visitorID string) ([]entity.PropertyInquiry, *app_error.AppError)
	TouchInquiryActivity(ctx context.Context, inquiryID string, at time.Time) error
}

type ChatRepoContract interface {
	RoomRepo
	MessageRepo
	GroupRepo
	TicketRepo
	InquiryRepo
}
