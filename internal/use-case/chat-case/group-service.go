package chat_service

import (
	"context"

	"github.com/google/uuid"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

type GroupService struct {
	Chat *ChatService
}

func NewGroupService(chat *ChatService) GroupServiceContract {
	return &GroupService{Chat: chat}
}

func (g *GroupService) CreateGroup(ctx context.Context, actor Actor, req chat_dto.CreateGroupRequest) (*chat_dto.RoomResponse, *app_error.AppError) {
	groupID := uuid.NewString()

	if appErr := g.Chat.ChatRepo.CreateGroup(ctx, &entity.GroupChat{
		GroupID:     groupID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	}); appErr != nil {
		return nil, appErr
	}

	roomID := room.GroupID(groupID)
	participants := make([]entity.RoomParticipant, 0, len(req.Members)+1)
	participants = append(participants, entity.RoomParticipant{
		RoomID:      roomID,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		Role:        string(actor.Role),
	})
	for _, userID := range req.Members {
		if userID == actor.UserID {
			continue
		}
		participants = append(participants, entity.RoomParticipant{
			RoomID: roomID,
			UserID: userID,
			Role:   string(room.RoleTenant),
		})
	}

	stored, appErr := g.Chat.ChatRepo.EnsureRoom(ctx, &entity.Room{
		ID:        roomID,
		Kind:      string(room.KindGroup),
		Status:    room.StatusActive,
		CreatedBy: actor.UserID,
	}, participants)
	if appErr != nil {
		return nil, appErr
	}

	resp := roomToResponse(stored, participants)
	resp.PropertyName = req.Name
	return resp, nil
}

func (g *GroupService) AddGroupMember(ctx context.Context, actor Actor, groupID string, req chat_dto.AddGroupMemberRequest) *app_error.AppError {
	group, appErr := g.Chat.ChatRepo.FindGroup(ctx, groupID)
	if appErr != nil {
		return appErr
	}

	if group.CreatedBy != actor.UserID && !actor.Role.IsMonitor() {
		return app_error.NewForbidden("only the group creator can add members", "user_id")
	}

	roomID := room.GroupID(group.GroupID)
	if appErr := g.Chat.ChatRepo.AddParticipant(ctx, &entity.RoomParticipant{
		RoomID: roomID,
		UserID: req.UserID,
		Role:   string(room.RoleTenant),
	}); appErr != nil {
		return appErr
	}

	g.Chat.Hub.Publish(roomID, websocket.NewSystemMessage(roomID, "member added", map[string]any{
		"user_id":  req.UserID,
		"added_by": actor.UserID,
	}))
	return nil
}

func (g *GroupService) ListGroups(ctx context.Context, actor Actor) ([]entity.GroupChat, *app_error.AppError) {
	return g.Chat.ChatRepo.ListGroupsForUser(ctx, actor.UserID)
}
