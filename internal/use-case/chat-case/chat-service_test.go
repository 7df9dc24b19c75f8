package chat_service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

func newTestService(repo *fakeRepo) (*ChatService, *websocket.Hub) {
	hub := websocket.NewHub("ADMIN_MONITOR", false)
	svc := &ChatService{
		ChatRepo: repo,
		Hub:      hub,
		locks:    newRoomLocks(),
		pageSize: 50,
	}
	return svc, hub
}

func subscribe(t *testing.T, hub *websocket.Hub, roomID, userID string, role room.Role) *websocket.Client {
	t.Helper()
	c := websocket.NewClient("sess-"+userID, nil, 64)
	c.Identify(userID, userID, role)
	hub.AttachUser(c)
	hub.Register(roomID, c)
	drain(c)
	return c
}

func drain(c *websocket.Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func recvEvent(t *testing.T, c *websocket.Client) websocket.ServerEvent {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev websocket.ServerEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return websocket.ServerEvent{}
	}
}

func assertNoEvent(t *testing.T, c *websocket.Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected event: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func activeDirectRoom(repo *fakeRepo, a, b string) *entity.Room {
	rm := &entity.Room{
		ID:     room.DirectID(a, b),
		Kind:   string(room.KindDirect),
		Status: room.StatusActive,
	}
	repo.addRoom(rm, a, b)
	return rm
}

func TestSendMessage_PersistsThenBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	bob := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)

	resp, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", DisplayName: "Alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hello"})
	require.Nil(t, appErr)
	require.NotEmpty(t, resp.MessageID)
	assert.Equal(t, rm.ID, resp.RoomID)
	assert.Equal(t, entity.MessageText, resp.Kind)

	require.Len(t, repo.messages, 1)
	assert.Equal(t, "hello", repo.messages[0].Body)

	ev := recvEvent(t, bob)
	assert.Equal(t, websocket.EventMessageReceived, ev.Type)
	assert.Equal(t, rm.ID, ev.RoomID)
	assert.Equal(t, resp.MessageID, ev.Data["message_id"])
	assert.Equal(t, "hello", ev.Data["body"])
}

func TestSendMessage_PersistFailureSuppressesBroadcast(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	bob := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)
	repo.failInsert = true

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hello"})
	require.NotNil(t, appErr)
	assert.Empty(t, repo.messages)
	assertNoEvent(t, bob)
}

func TestSendMessage_MetadataFailureStillBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	bob := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)
	repo.failTouch = true

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hello"})
	require.Nil(t, appErr)

	ev := recvEvent(t, bob)
	assert.Equal(t, websocket.EventMessageReceived, ev.Type)
}

func TestSendMessage_NonParticipantForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "mallory", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)
}

func TestSendMessage_ForbiddenLeavesNoRoom(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	roomID := room.DirectID("alice", "bob")
	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "mallory", Role: room.RoleTenant}, roomID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	// the rejected send must not materialize the pair room
	_, findErr := repo.FindRoomByID(context.Background(), roomID)
	require.NotNil(t, findErr)
	assert.True(t, app_error.IsNotFound(findErr))

	// same rule on the join path
	_, appErr = svc.JoinRoom(context.Background(), Actor{UserID: "mallory", Role: room.RoleTenant}, roomID)
	require.NotNil(t, appErr)
	_, findErr = repo.FindRoomByID(context.Background(), roomID)
	require.NotNil(t, findErr)
}

func TestSendMessage_MonitorBypassesMembership(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, rm.ID, chat_dto.SendMessageRequest{Body: "moderation note"})
	require.Nil(t, appErr)
}

func TestSendMessage_ClosedRoom(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")
	rm.Status = room.StatusClosed

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)

	// super_admin may still write into a closed room
	_, appErr = svc.SendMessage(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, rm.ID, chat_dto.SendMessageRequest{Body: "hi"})
	require.Nil(t, appErr)
}

func TestSendMessage_ArchivedRoomRejectsEveryone(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")
	rm.Status = room.StatusArchived

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, rm.ID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
}

func TestSendMessage_LazyEnsuresPairRoom(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	roomID := room.DirectID("alice", "bob")
	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, roomID, chat_dto.SendMessageRequest{Body: "first contact"})
	require.Nil(t, appErr)

	rm, findErr := repo.FindRoomByID(context.Background(), roomID)
	require.Nil(t, findErr)
	assert.Equal(t, string(room.KindDirect), rm.Kind)

	ok, _ := repo.IsParticipant(context.Background(), roomID, "bob")
	assert.True(t, ok)
}

func TestSendMessage_NormalizesLegacyRoomID(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	resp, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, "CHAT_alice_bob", chat_dto.SendMessageRequest{Body: "hi"})
	require.Nil(t, appErr)
	assert.Equal(t, "DIRECT_alice_bob", resp.RoomID)
}

func TestSendMessage_ConcurrentSendersKeepStorageOrder(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	watcher := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: fmt.Sprintf("msg-%d", i)})
			assert.Nil(t, appErr)
		}(i)
	}
	wg.Wait()

	require.Len(t, repo.messages, n)

	// delivery order must match storage order
	for i := 0; i < n; i++ {
		ev := recvEvent(t, watcher)
		assert.Equal(t, repo.messages[i].ID.Hex(), ev.Data["message_id"])
	}
}

func TestSendMessage_InquiryGate(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	inquiry := &entity.PropertyInquiry{
		InquiryID:  "inq-1",
		PropertyID: "prop-1",
		OwnerID:    "owner",
		VisitorID:  "visitor",
		Status:     room.InquiryRequested,
	}
	repo.inquiries[inquiry.InquiryID] = inquiry

	roomID := room.InquiryID(inquiry.InquiryID)
	repo.addRoom(&entity.Room{ID: roomID, Kind: string(room.KindInquiry), Status: room.StatusActive}, "owner", "visitor")

	// pending: nobody may send, not even the owner
	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "visitor", Role: room.RoleAnonymous}, roomID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)
	_, appErr = svc.SendMessage(context.Background(), Actor{UserID: "owner", Role: room.RoleOwner}, roomID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	inquiry.Status = room.InquiryAccepted
	_, appErr = svc.SendMessage(context.Background(), Actor{UserID: "visitor", Role: room.RoleAnonymous}, roomID, chat_dto.SendMessageRequest{Body: "hi"})
	require.Nil(t, appErr)

	inquiry.Status = room.InquiryRejected
	_, appErr = svc.SendMessage(context.Background(), Actor{UserID: "visitor", Role: room.RoleAnonymous}, roomID, chat_dto.SendMessageRequest{Body: "hi"})
	require.NotNil(t, appErr)
}

func TestJoinRoom_PendingInquiryAdmitsOwnerOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	repo.inquiries["inq-1"] = &entity.PropertyInquiry{
		InquiryID: "inq-1",
		OwnerID:   "owner",
		VisitorID: "visitor",
		Status:    room.InquiryRequested,
	}
	roomID := room.InquiryID("inq-1")
	repo.addRoom(&entity.Room{ID: roomID, Kind: string(room.KindInquiry), Status: room.StatusActive}, "owner", "visitor")

	_, appErr := svc.JoinRoom(context.Background(), Actor{UserID: "owner", Role: room.RoleOwner}, roomID)
	require.Nil(t, appErr)

	_, appErr = svc.JoinRoom(context.Background(), Actor{UserID: "visitor", Role: room.RoleAnonymous}, roomID)
	require.NotNil(t, appErr)
}

func TestJoinRoom_LazyEnsureAndOutsiderRules(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	// first join materializes the pair room
	roomID := room.BookingID("tenant1", "owner1")
	rm, appErr := svc.JoinRoom(context.Background(), Actor{UserID: "tenant1", Role: room.RoleTenant}, roomID)
	require.Nil(t, appErr)
	assert.Equal(t, string(room.KindBooking), rm.Kind)

	// a third tenant is not one of the key users
	_, appErr = svc.JoinRoom(context.Background(), Actor{UserID: "tenant2", Role: room.RoleTenant}, roomID)
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	// monitor joins without becoming a participant
	_, appErr = svc.JoinRoom(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, roomID)
	require.Nil(t, appErr)
	ok, _ := repo.IsParticipant(context.Background(), roomID, "admin")
	assert.False(t, ok)

	// joins against a missing entity room are not creations
	_, appErr = svc.JoinRoom(context.Background(), Actor{UserID: "tenant1", Role: room.RoleTenant}, room.GroupID("nope"))
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)
}

func TestCreateOrGetRoom_PairwiseIsCommutative(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	first, appErr := svc.CreateOrGetRoom(context.Background(), Actor{UserID: "bob", Role: room.RoleTenant}, chat_dto.CreateRoomRequest{
		Kind:         string(room.KindDirect),
		Participants: []string{"alice"},
	})
	require.Nil(t, appErr)

	second, appErr := svc.CreateOrGetRoom(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, chat_dto.CreateRoomRequest{
		Kind:         string(room.KindDirect),
		Participants: []string{"bob"},
	})
	require.Nil(t, appErr)

	assert.Equal(t, first.RoomID, second.RoomID)
	assert.Len(t, repo.rooms, 1)
}

func TestCreateOrGetRoom_Validation(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	actor := Actor{UserID: "alice", Role: room.RoleTenant}

	_, appErr := svc.CreateOrGetRoom(context.Background(), actor, chat_dto.CreateRoomRequest{Kind: "banter"})
	require.NotNil(t, appErr)

	_, appErr = svc.CreateOrGetRoom(context.Background(), actor, chat_dto.CreateRoomRequest{Kind: string(room.KindDirect)})
	require.NotNil(t, appErr)
	assert.Equal(t, "participants", appErr.Field)

	_, appErr = svc.CreateOrGetRoom(context.Background(), actor, chat_dto.CreateRoomRequest{Kind: string(room.KindGroup)})
	require.NotNil(t, appErr)
	assert.Equal(t, "entity_id", appErr.Field)
}

func TestCloseAndReopenRoom(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	bob := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)

	appErr := svc.CloseRoom(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, "done")
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	appErr = svc.CloseRoom(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, rm.ID, "resolved")
	require.Nil(t, appErr)
	assert.Equal(t, room.StatusClosed, rm.Status)

	ev := recvEvent(t, bob)
	assert.Equal(t, websocket.EventRoomClosed, ev.Type)

	// area managers close but only admins reopen
	appErr = svc.ReopenRoom(context.Background(), Actor{UserID: "mgr", Role: room.RoleAreaManager}, rm.ID)
	require.NotNil(t, appErr)

	appErr = svc.ReopenRoom(context.Background(), Actor{UserID: "admin", Role: room.RoleSuperAdmin}, rm.ID)
	require.Nil(t, appErr)
	assert.Equal(t, room.StatusActive, rm.Status)
}

func TestMarkRead_NotifiesOthersOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: "hi"})
	require.Nil(t, appErr)

	alice := subscribe(t, hub, rm.ID, "alice", room.RoleTenant)
	bob := subscribe(t, hub, rm.ID, "bob", room.RoleTenant)
	drain(alice)

	modified, appErr := svc.MarkRead(context.Background(), Actor{UserID: "bob", Role: room.RoleTenant}, rm.ID)
	require.Nil(t, appErr)
	assert.Equal(t, int64(1), modified)

	ev := recvEvent(t, alice)
	assert.Equal(t, websocket.EventMessagesRead, ev.Type)
	assert.Equal(t, "bob", ev.Data["reader_id"])
	assertNoEvent(t, bob)

	// second pass has nothing left to flip, no event
	modified, appErr = svc.MarkRead(context.Background(), Actor{UserID: "bob", Role: room.RoleTenant}, rm.ID)
	require.Nil(t, appErr)
	assert.Zero(t, modified)
	assertNoEvent(t, alice)
}

func TestGetMessages_MembershipAndPaging(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	rm := activeDirectRoom(repo, "alice", "bob")

	for i := 0; i < 3; i++ {
		_, appErr := svc.SendMessage(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, rm.ID, chat_dto.SendMessageRequest{Body: fmt.Sprintf("m%d", i)})
		require.Nil(t, appErr)
	}

	_, appErr := svc.GetMessages(context.Background(), Actor{UserID: "mallory", Role: room.RoleTenant}, rm.ID, chat_dto.GetMessagesRequest{})
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)

	resp, appErr := svc.GetMessages(context.Background(), Actor{UserID: "bob", Role: room.RoleTenant}, rm.ID, chat_dto.GetMessagesRequest{Limit: 2})
	require.Nil(t, appErr)
	require.Len(t, resp.Messages, 2)
	assert.True(t, resp.HasMore)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, resp.Messages[0].ID.Hex(), *resp.NextCursor)
}

func TestScheduleVisit_BookingRoomsOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, hub := newTestService(repo)

	direct := activeDirectRoom(repo, "alice", "bob")
	_, appErr := svc.ScheduleVisit(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, direct.ID, chat_dto.ScheduleVisitRequest{
		VisitType: "physical", ScheduledDate: "2026-09-15", ScheduledTime: "14:00",
	})
	require.NotNil(t, appErr)

	booking := &entity.Room{ID: room.BookingID("alice", "owner"), Kind: string(room.KindBooking), Status: room.StatusActive}
	repo.addRoom(booking, "alice", "owner")
	owner := subscribe(t, hub, booking.ID, "owner", room.RoleOwner)

	visit, appErr := svc.ScheduleVisit(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, booking.ID, chat_dto.ScheduleVisitRequest{
		VisitType: "virtual", ScheduledDate: "2026-09-15", ScheduledTime: "14:00",
	})
	require.Nil(t, appErr)
	assert.Equal(t, "virtual", visit.VisitType)

	ev := recvEvent(t, owner)
	assert.Equal(t, websocket.EventVisitScheduled, ev.Type)

	_, appErr = svc.ScheduleVisit(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, booking.ID, chat_dto.ScheduleVisitRequest{
		VisitType: "physical", ScheduledDate: "next tuesday", ScheduledTime: "14:00",
	})
	require.NotNil(t, appErr)

	visits, appErr := svc.ListVisits(context.Background(), Actor{UserID: "alice", Role: room.RoleTenant}, booking.ID)
	require.Nil(t, appErr)
	assert.Len(t, visits, 1)
}
