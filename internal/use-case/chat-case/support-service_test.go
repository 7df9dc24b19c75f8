package chat_service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	"github.com/thira3721-ai/roomhy/internal/room"
)

func TestCreateTicket_OpensSupportRoom(t *testing.T) {
	repo := newFakeRepo()
	chat, _ := newTestService(repo)
	svc := NewSupportService(chat)

	ticket, appErr := svc.CreateTicket(context.Background(), Actor{UserID: "tenant", Role: room.RoleTenant}, chat_dto.CreateTicketRequest{
		Subject:    "heating broken",
		AssignedTo: "mgr",
	})
	require.Nil(t, appErr)
	assert.Equal(t, entity.TicketOpen, ticket.Status)
	assert.Equal(t, "medium", ticket.Priority)
	require.NotNil(t, ticket.AssignedTo)

	roomID := room.SupportID(ticket.TicketID)
	rm, findErr := repo.FindRoomByID(context.Background(), roomID)
	require.Nil(t, findErr)
	assert.Equal(t, string(room.KindSupport), rm.Kind)

	for _, userID := range []string{"tenant", "mgr"} {
		ok, _ := repo.IsParticipant(context.Background(), roomID, userID)
		assert.True(t, ok, userID)
	}
}

func TestUpdateTicketStatus_StaffOnly(t *testing.T) {
	repo := newFakeRepo()
	chat, _ := newTestService(repo)
	svc := NewSupportService(chat)

	ticket, appErr := svc.CreateTicket(context.Background(), Actor{UserID: "tenant", Role: room.RoleTenant}, chat_dto.CreateTicketRequest{Subject: "leaky tap"})
	require.Nil(t, appErr)

	_, appErr = svc.UpdateTicketStatus(context.Background(), Actor{UserID: "tenant", Role: room.RoleTenant}, ticket.TicketID, chat_dto.UpdateTicketStatusRequest{Status: entity.TicketResolved})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	_, appErr = svc.UpdateTicketStatus(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, ticket.TicketID, chat_dto.UpdateTicketStatusRequest{Status: "escalating"})
	require.NotNil(t, appErr)

	updated, appErr := svc.UpdateTicketStatus(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, ticket.TicketID, chat_dto.UpdateTicketStatusRequest{Status: entity.TicketInProgress})
	require.Nil(t, appErr)
	assert.Equal(t, entity.TicketInProgress, updated.Status)
}

func TestUpdateTicketStatus_ClosingClosesRoom(t *testing.T) {
	repo := newFakeRepo()
	chat, _ := newTestService(repo)
	svc := NewSupportService(chat)

	ticket, appErr := svc.CreateTicket(context.Background(), Actor{UserID: "tenant", Role: room.RoleTenant}, chat_dto.CreateTicketRequest{Subject: "noise complaint"})
	require.Nil(t, appErr)

	_, appErr = svc.UpdateTicketStatus(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, ticket.TicketID, chat_dto.UpdateTicketStatusRequest{Status: entity.TicketClosed})
	require.Nil(t, appErr)

	rm, findErr := repo.FindRoomByID(context.Background(), room.SupportID(ticket.TicketID))
	require.Nil(t, findErr)
	assert.Equal(t, room.StatusClosed, rm.Status)

	// reporter can no longer write, staff still can
	_, appErr = chat.SendMessage(context.Background(), Actor{UserID: "tenant", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "still noisy"})
	require.NotNil(t, appErr)
	_, appErr = chat.SendMessage(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, rm.ID, chat_dto.SendMessageRequest{Body: "reopened elsewhere"})
	require.Nil(t, appErr)
}

func TestListTickets_Scoping(t *testing.T) {
	repo := newFakeRepo()
	chat, _ := newTestService(repo)
	svc := NewSupportService(chat)

	for _, reporter := range []string{"t1", "t2"} {
		_, appErr := svc.CreateTicket(context.Background(), Actor{UserID: reporter, Role: room.RoleTenant}, chat_dto.CreateTicketRequest{Subject: "issue"})
		require.Nil(t, appErr)
	}

	own, appErr := svc.ListTickets(context.Background(), Actor{UserID: "t1", Role: room.RoleTenant}, "")
	require.Nil(t, appErr)
	assert.Len(t, own, 1)

	all, appErr := svc.ListTickets(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, "")
	require.Nil(t, appErr)
	assert.Len(t, all, 2)

	open, appErr := svc.ListTickets(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, entity.TicketOpen)
	require.Nil(t, appErr)
	assert.Len(t, open, 2)
}
