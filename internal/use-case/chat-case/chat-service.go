package chat_service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/config"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/queue"
	chat_repo "github.com/thira3721-ai/roomhy/internal/repo/chat"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
	"github.com/thira3721-ai/roomhy/state"
)

// AreaResolver maps an area to the managers responsible for it. User
// administration lives in another service; this is the only lookup the
// chat layer needs from it.
type AreaResolver interface {
	ManagersForArea(ctx context.Context, area string) ([]string, error)
}

type ChatService struct {
	AppState *state.AppState
	ChatRepo chat_repo.ChatRepoContract
	Hub      *websocket.Hub
	Producer queue.Producer
	Areas    AreaResolver

	locks    *roomLocks
	pageSize int
}

func NewChatService(appState *state.AppState, hub *websocket.Hub, producer queue.Producer, areas AreaResolver) *ChatService {
	pageSize := 50
	if config.Conf != nil && config.Conf.CHAT.HistoryPageSize > 0 {
		pageSize = config.Conf.CHAT.HistoryPageSize
	}
	return &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState),
		Hub:      hub,
		Producer: producer,
		Areas:    areas,
		locks:    newRoomLocks(),
		pageSize: pageSize,
	}
}

func (c *ChatService) CreateOrGetRoom(ctx context.Context, actor Actor, req chat_dto.CreateRoomRequest) (*chat_dto.RoomResponse, *app_error.AppError) {
	kind := room.Kind(req.Kind)
	if !kind.Valid() {
		return nil, app_error.NewValidation("unknown room kind", "kind")
	}

	roomID, appErr := c.resolveRoomID(actor, kind, req)
	if appErr != nil {
		return nil, appErr
	}

	participants := make([]entity.RoomParticipant, 0, len(req.Participants)+1)
	participants = append(participants, entity.RoomParticipant{
		RoomID:      roomID,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		Role:        string(actor.Role),
	})
	for _, userID := range req.Participants {
		if userID == actor.UserID {
			continue
		}
		participants = append(participants, entity.RoomParticipant{
			RoomID: roomID,
			UserID: userID,
			Role:   string(room.RoleTenant),
		})
	}

	stored, appErr := c.ChatRepo.EnsureRoom(ctx, &entity.Room{
		ID:           roomID,
		Kind:         string(kind),
		Status:       room.StatusActive,
		PropertyID:   req.PropertyID,
		PropertyName: req.PropertyName,
		BookingID:    req.BookingID,
		Area:         req.Area,
		CreatedBy:    actor.UserID,
	}, participants)
	if appErr != nil {
		return nil, appErr
	}

	return roomToResponse(stored, participants), nil
}

func (c *ChatService) resolveRoomID(actor Actor, kind room.Kind, req chat_dto.CreateRoomRequest) (string, *app_error.AppError) {
	if kind.PairWise() {
		other := ""
		for _, p := range req.Participants {
			if p != actor.UserID {
				other = p
				break
			}
		}
		if other == "" {
			return "", app_error.NewValidation("pairwise rooms need exactly one other participant", "participants")
		}
		id, err := room.Resolve(kind, actor.UserID, other)
		if err != nil {
			return "", app_error.NewValidation(err.Error(), "participants")
		}
		return id, nil
	}

	if req.EntityID == "" {
		return "", app_error.NewValidation("entity_id is required for this room kind", "entity_id")
	}
	id, err := room.Resolve(kind, req.EntityID)
	if err != nil {
		return "", app_error.NewValidation(err.Error(), "entity_id")
	}
	return id, nil
}

// JoinRoom is the durable half of joining: membership and lifecycle
// checks. The live half, hub registration, is done by the caller once
// this returns the room.
func (c *ChatService) JoinRoom(ctx context.Context, actor Actor, roomID string) (*entity.Room, *app_error.AppError) {
	roomID = room.Normalize(roomID)

	rm, appErr := c.findOrLazyEnsure(ctx, actor, roomID)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := c.checkRoomOpen(ctx, rm, actor, false); appErr != nil {
		return nil, appErr
	}

	isMember, appErr := c.ChatRepo.IsParticipant(ctx, rm.ID, actor.UserID)
	if appErr != nil {
		return nil, appErr
	}
	if !isMember {
		if !c.mayJoinAsOutsider(actor, rm) {
			return nil, app_error.NewForbidden("not a participant of this room", "room_id")
		}
		if !actor.Role.IsMonitor() {
			if appErr := c.ChatRepo.AddParticipant(ctx, &entity.RoomParticipant{
				RoomID:      rm.ID,
				UserID:      actor.UserID,
				DisplayName: actor.DisplayName,
				Role:        string(actor.Role),
			}); appErr != nil {
				return nil, appErr
			}
		}
	}

	return rm, nil
}

// mayJoinAsOutsider decides whether a non-participant may enter. Pair
// rooms admit only the two key users; the rest admit staff roles.
func (c *ChatService) mayJoinAsOutsider(actor Actor, rm *entity.Room) bool {
	if actor.Role.IsMonitor() {
		return true
	}
	kind := room.Kind(rm.Kind)
	if kind.PairWise() {
		_, key, err := room.Parse(rm.ID)
		if err != nil {
			return false
		}
		a, b, ok := room.SplitPairKey(key)
		return ok && (actor.UserID == a || actor.UserID == b)
	}
	return actor.Role == room.RoleAreaManager
}

// findOrLazyEnsure fetches the room, creating pair rooms on first
// contact. Entity-backed rooms (group, support, inquiry) are created
// only through their own flows, a join against a missing one is a 404.
// Only the pair's two key users may materialize the room: a rejected
// actor must leave no row behind.
func (c *ChatService) findOrLazyEnsure(ctx context.Context, actor Actor, roomID string) (*entity.Room, *app_error.AppError) {
	rm, appErr := c.ChatRepo.FindRoomByID(ctx, roomID)
	if appErr == nil {
		return rm, nil
	}
	if !app_error.IsNotFound(appErr) {
		return nil, appErr
	}

	kind, key, err := room.Parse(roomID)
	if err != nil {
		return nil, app_error.NewValidation(err.Error(), "room_id")
	}
	if !kind.PairWise() {
		return nil, appErr
	}

	a, b, ok := room.SplitPairKey(key)
	if !ok {
		return nil, app_error.NewValidation("malformed pair room id", "room_id")
	}
	if actor.UserID != a && actor.UserID != b {
		if actor.Role.IsMonitor() {
			return nil, appErr
		}
		return nil, app_error.NewForbidden("not a participant of this room", "room_id")
	}
	return c.ChatRepo.EnsureRoom(ctx, &entity.Room{
		ID:     roomID,
		Kind:   string(kind),
		Status: room.StatusActive,
	}, []entity.RoomParticipant{
		{RoomID: roomID, UserID: a, Role: string(room.RoleTenant)},
		{RoomID: roomID, UserID: b, Role: string(room.RoleTenant)},
	})
}

// checkRoomOpen enforces lifecycle and kind-specific gates. asSender
// tightens the inquiry gate: reading a pending inquiry room is fine
// for its owner, sending into one is not.
func (c *ChatService) checkRoomOpen(ctx context.Context, rm *entity.Room, actor Actor, asSender bool) *app_error.AppError {
	switch rm.Status {
	case room.StatusArchived:
		return app_error.NewRoomUnavailable("room is archived")
	case room.StatusClosed:
		if !actor.Role.CanOverrideClosed() {
			return app_error.NewRoomUnavailable("room is closed")
		}
	}

	if room.Kind(rm.Kind) != room.KindInquiry || actor.Role.IsMonitor() {
		return nil
	}

	_, inquiryID, err := room.Parse(rm.ID)
	if err != nil {
		return app_error.NewValidation(err.Error(), "room_id")
	}
	inquiry, appErr := c.ChatRepo.FindInquiry(ctx, inquiryID)
	if appErr != nil {
		return appErr
	}
	switch inquiry.Status {
	case room.InquiryRejected:
		return app_error.NewRoomUnavailable("inquiry was rejected")
	case room.InquiryRequested:
		// Pending inquiries gate on authorization, not availability:
		// the room exists, the actor just may not use it yet.
		if asSender || actor.UserID != inquiry.OwnerID {
			return app_error.NewForbidden("inquiry has not been accepted yet", "room_id")
		}
	}
	return nil
}

// SendMessage is the dual-write path: persist first, broadcast only on
// success. The per-room lock spans both steps so every subscriber sees
// messages in storage order.
func (c *ChatService) SendMessage(ctx context.Context, actor Actor, roomID string, req chat_dto.SendMessageRequest) (*chat_dto.SendMessageResponse, *app_error.AppError) {
	roomID = room.Normalize(roomID)

	lock := c.locks.get(roomID)
	lock.Lock()
	defer lock.Unlock()

	rm, appErr := c.findOrLazyEnsure(ctx, actor, roomID)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := c.checkRoomOpen(ctx, rm, actor, true); appErr != nil {
		return nil, appErr
	}

	if !actor.Role.IsMonitor() {
		isMember, appErr := c.ChatRepo.IsParticipant(ctx, rm.ID, actor.UserID)
		if appErr != nil {
			return nil, appErr
		}
		if !isMember {
			return nil, app_error.NewForbidden("not a participant of this room", "room_id")
		}
	}

	kind := req.Kind
	if kind == "" {
		kind = entity.MessageText
	}

	msg := &entity.Message{
		RoomID:      rm.ID,
		SenderID:    actor.UserID,
		SenderName:  actor.DisplayName,
		SenderRole:  string(actor.Role),
		Body:        req.Body,
		Kind:        kind,
		FileURL:     req.FileURL,
		IsEscalated: req.IsEscalated,
		CreatedAt:   time.Now(),
	}

	msgID, appErr := c.ChatRepo.InsertMessage(ctx, msg)
	if appErr != nil {
		// persist failed: nothing was broadcast, sender sees the error
		return nil, appErr
	}

	// metadata is best-effort, a failure here never suppresses delivery
	if err := c.ChatRepo.TouchRoomActivity(ctx, rm.ID, msg.CreatedAt); err != nil {
		log.Warn().Err(err).Str("room_id", rm.ID).Msg("failed to touch room activity")
	}
	c.touchKindActivity(ctx, rm, msg.CreatedAt)

	event := websocket.NewServerEvent(websocket.EventMessageReceived, rm.ID, map[string]any{
		"message_id":   msgID.Hex(),
		"sender_id":    msg.SenderID,
		"sender_name":  msg.SenderName,
		"sender_role":  msg.SenderRole,
		"body":         msg.Body,
		"kind":         msg.Kind,
		"file_url":     msg.FileURL,
		"is_escalated": msg.IsEscalated,
		"created_at":   msg.CreatedAt,
	})
	c.Hub.Publish(rm.ID, event)

	if msg.IsEscalated {
		c.enqueueEscalationAlert(ctx, rm, msgID.Hex(), actor.UserID)
	}

	return &chat_dto.SendMessageResponse{
		MessageID: msgID.Hex(),
		RoomID:    rm.ID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		Kind:      msg.Kind,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (c *ChatService) touchKindActivity(ctx context.Context, rm *entity.Room, at time.Time) {
	_, key, err := room.Parse(rm.ID)
	if err != nil {
		return
	}

	switch room.Kind(rm.Kind) {
	case room.KindGroup:
		err = c.ChatRepo.TouchGroupActivity(ctx, key, at)
	case room.KindSupport:
		err = c.ChatRepo.TouchTicketActivity(ctx, key, at)
	case room.KindInquiry:
		err = c.ChatRepo.TouchInquiryActivity(ctx, key, at)
	default:
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("room_id", rm.ID).Msg("failed to touch kind activity")
	}
}

func (c *ChatService) enqueueEscalationAlert(ctx context.Context, rm *entity.Room, messageID, senderID string) {
	if c.Producer == nil || rm.Area == "" {
		return
	}

	managerIDs := []string{}
	if c.Areas != nil {
		ids, err := c.Areas.ManagersForArea(ctx, rm.Area)
		if err != nil {
			log.Warn().Err(err).Str("area", rm.Area).Msg("failed to resolve area managers")
		} else {
			managerIDs = ids
		}
	}
	if len(managerIDs) == 0 {
		return
	}

	job := queue.NewJob(queue.JobEscalationAlert, queue.EscalationAlertPayload{
		RoomID:     rm.ID,
		MessageID:  messageID,
		SenderID:   senderID,
		Area:       rm.Area,
		ManagerIDs: managerIDs,
	}, queue.PriorityHigh, c.maxRetry(), c.jobLifetime())

	if err := c.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("room_id", rm.ID).Msg("failed to enqueue escalation alert")
	}
}

func (c *ChatService) maxRetry() int {
	if config.Conf != nil && config.Conf.WORKER.MaxRetry > 0 {
		return config.Conf.WORKER.MaxRetry
	}
	return 3
}

func (c *ChatService) jobLifetime() time.Duration {
	if config.Conf != nil && config.Conf.WORKER.JobLifetime > 0 {
		return config.Conf.WORKER.JobLifetime
	}
	return time.Minute
}

func (c *ChatService) GetMessages(ctx context.Context, actor Actor, roomID string, req chat_dto.GetMessagesRequest) (*chat_dto.GetMessagesResponse, *app_error.AppError) {
	roomID = room.Normalize(roomID)

	rm, appErr := c.ChatRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return nil, appErr
	}

	if !actor.Role.IsMonitor() {
		isMember, appErr := c.ChatRepo.IsParticipant(ctx, rm.ID, actor.UserID)
		if appErr != nil {
			return nil, appErr
		}
		if !isMember {
			return nil, app_error.NewForbidden("not a participant of this room", "room_id")
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = c.pageSize
	}

	messages, appErr := c.ChatRepo.ListMessages(ctx, rm.ID, limit, req.BeforeID)
	if appErr != nil {
		return nil, appErr
	}

	var nextCursor *string
	if len(messages) > 0 {
		oldest := messages[0].ID.Hex()
		nextCursor = &oldest
	}

	return &chat_dto.GetMessagesResponse{
		Messages:   messages,
		NextCursor: nextCursor,
		HasMore:    len(messages) == limit,
	}, nil
}

func (c *ChatService) ListRooms(ctx context.Context, actor Actor) ([]chat_dto.RoomResponse, *app_error.AppError) {
	rooms, appErr := c.ChatRepo.ListRoomsForUser(ctx, actor.UserID)
	if appErr != nil {
		return nil, appErr
	}

	resp := make([]chat_dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		resp = append(resp, *roomToResponse(&rooms[i], nil))
	}
	return resp, nil
}

func (c *ChatService) CloseRoom(ctx context.Context, actor Actor, roomID, reason string) *app_error.AppError {
	roomID = room.Normalize(roomID)

	if actor.Role != room.RoleSuperAdmin && actor.Role != room.RoleAreaManager {
		return app_error.NewForbidden("only staff can close rooms", "role")
	}

	if appErr := c.ChatRepo.SetRoomStatus(ctx, roomID, room.StatusClosed); appErr != nil {
		return appErr
	}

	c.Hub.Publish(roomID, websocket.NewRoomClosedEvent(roomID, actor.UserID, reason))
	return nil
}

func (c *ChatService) ReopenRoom(ctx context.Context, actor Actor, roomID string) *app_error.AppError {
	roomID = room.Normalize(roomID)

	if !actor.Role.CanOverrideClosed() {
		return app_error.NewForbidden("only an admin can reopen rooms", "role")
	}

	if appErr := c.ChatRepo.SetRoomStatus(ctx, roomID, room.StatusActive); appErr != nil {
		return appErr
	}

	c.Hub.Publish(roomID, websocket.NewSystemMessage(roomID, "room reopened", map[string]any{
		"reopened_by": actor.UserID,
	}))
	return nil
}

func (c *ChatService) MarkRead(ctx context.Context, actor Actor, roomID string) (int64, *app_error.AppError) {
	roomID = room.Normalize(roomID)

	rm, appErr := c.ChatRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return 0, appErr
	}

	modified, appErr := c.ChatRepo.MarkMessagesRead(ctx, rm.ID, actor.UserID)
	if appErr != nil {
		return 0, appErr
	}

	if modified > 0 {
		c.Hub.PublishExceptUser(rm.ID, websocket.NewServerEvent(websocket.EventMessagesRead, rm.ID, map[string]any{
			"reader_id": actor.UserID,
			"count":     modified,
		}), actor.UserID)
	}
	return modified, nil
}

func (c *ChatService) ScheduleVisit(ctx context.Context, actor Actor, roomID string, req chat_dto.ScheduleVisitRequest) (*entity.ScheduledVisit, *app_error.AppError) {
	roomID = room.Normalize(roomID)

	rm, appErr := c.ChatRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return nil, appErr
	}
	if room.Kind(rm.Kind) != room.KindBooking {
		return nil, app_error.NewValidation("visits can only be scheduled on booking rooms", "room_id")
	}
	if appErr := c.checkRoomOpen(ctx, rm, actor, true); appErr != nil {
		return nil, appErr
	}

	date, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return nil, app_error.NewValidation("scheduled_date must be YYYY-MM-DD", "scheduled_date")
	}

	visit := &entity.ScheduledVisit{
		RoomID:        rm.ID,
		VisitType:     req.VisitType,
		ScheduledDate: date,
		ScheduledTime: req.ScheduledTime,
		ScheduledBy:   actor.UserID,
	}
	if appErr := c.ChatRepo.ScheduleVisit(ctx, visit); appErr != nil {
		return nil, appErr
	}

	c.Hub.Publish(rm.ID, websocket.NewServerEvent(websocket.EventVisitScheduled, rm.ID, map[string]any{
		"visit_type":     visit.VisitType,
		"scheduled_date": req.ScheduledDate,
		"scheduled_time": visit.ScheduledTime,
		"scheduled_by":   visit.ScheduledBy,
	}))
	return visit, nil
}

func (c *ChatService) ListVisits(ctx context.Context, actor Actor, roomID string) ([]entity.ScheduledVisit, *app_error.AppError) {
	roomID = room.Normalize(roomID)
	if _, appErr := c.ChatRepo.FindRoomByID(ctx, roomID); appErr != nil {
		return nil, appErr
	}
	return c.ChatRepo.ListVisits(ctx, roomID)
}

func roomToResponse(rm *entity.Room, participants []entity.RoomParticipant) *chat_dto.RoomResponse {
	return &chat_dto.RoomResponse{
		RoomID:        rm.ID,
		Kind:          rm.Kind,
		Status:        rm.Status,
		Participants:  participants,
		PropertyID:    rm.PropertyID,
		PropertyName:  rm.PropertyName,
		Area:          rm.Area,
		MessageCount:  rm.MessageCount,
		LastMessageAt: rm.LastMessageAt,
	}
}
