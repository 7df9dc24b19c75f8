package chat_repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/config"
	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/state"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepo struct {
	AppState *state.AppState
}

func NewChatRepo(appState *state.AppState) ChatRepoContract {
	return &ChatRepo{
		AppState: appState,
	}
}

func (r *ChatRepo) EnsureRoom(ctx context.Context, room *entity.Room, participants []entity.RoomParticipant) (*entity.Room, *app_error.AppError) {
	tx := r.AppState.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	// DoNothing on conflict: concurrent callers race to create, the
	// loser falls through to the fetch below and both see one record.
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(room).Error; err != nil {
		tx.Rollback()
		log.Error().Err(err).Str("room_id", room.ID).Msg("failed to ensure room")
		return nil, app_error.NewPersistence("failed to create room", "db-error")
	}

	if len(participants) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&participants).Error; err != nil {
			tx.Rollback()
			log.Error().Err(err).Str("room_id", room.ID).Msg("failed to attach room participants")
			return nil, app_error.NewPersistence("failed to add room participants", "db-error")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, app_error.NewPersistence("failed to commit room creation", "db-error")
	}

	var stored entity.Room
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", room.ID).First(&stored).Error; err != nil {
		return nil, app_error.NewPersistence("failed to fetch room after ensure", "db-error")
	}
	return &stored, nil
}

func (r *ChatRepo) FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	var room entity.Room
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewNotFound("room not found", "not-found")
		}
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to fetch room")
		return nil, app_error.NewPersistence("failed to fetch room", "db-error")
	}
	return &room, nil
}

func (r *ChatRepo) ListRoomsForUser(ctx context.Context, userID string) ([]entity.Room, *app_error.AppError) {
	var rooms []entity.Room
	err := r.AppState.DB.WithContext(ctx).
		Joins("JOIN room_participants rp ON rp.room_id = rooms.id").
		Where("rp.user_id = ? AND rp.left_at IS NULL", userID).
		Order("rooms.last_message_at DESC NULLS LAST").
		Find(&rooms).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list rooms for user")
		return nil, app_error.NewPersistence("failed to list rooms", "db-error")
	}
	return rooms, nil
}

func (r *ChatRepo) FindRoomParticipants(ctx context.Context, roomID string) ([]entity.RoomParticipant, *app_error.AppError) {
	var participants []entity.RoomParticipant
	if err := r.AppState.DB.WithContext(ctx).Where("room_id = ?", roomID).Find(&participants).Error; err != nil {
		return nil, app_error.NewPersistence("failed to fetch room participants", "db-error")
	}
	return participants, nil
}

func (r *ChatRepo) IsParticipant(ctx context.Context, roomID, userID string) (bool, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).Model(&entity.RoomParticipant{}).
		Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, app_error.NewPersistence("failed to check room membership", "db-error")
	}
	return count > 0, nil
}

func (r *ChatRepo) AddParticipant(ctx context.Context, p *entity.RoomParticipant) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"left_at": nil}),
	}).Create(p).Error
	if err != nil {
		log.Error().Err(err).Str("room_id", p.RoomID).Str("user_id", p.UserID).Msg("failed to add participant")
		return app_error.NewPersistence("failed to add participant", "db-error")
	}
	return nil
}

func (r *ChatRepo) SetRoomStatus(ctx context.Context, roomID, status string) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).Model(&entity.Room{}).
		Where("id = ?", roomID).
		Update("status", status)
	if res.Error != nil {
		return app_error.NewPersistence("failed to update room status", "db-error")
	}
	if res.RowsAffected == 0 {
		return app_error.NewNotFound("room not found", "not-found")
	}
	return nil
}

func (r *ChatRepo) TouchRoomActivity(ctx context.Context, roomID string, at time.Time) error {
	return r.AppState.DB.WithContext(ctx).Model(&entity.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]any{
			"last_message_at": at,
			"message_count":   gorm.Expr("message_count + ?", 1),
		}).Error
}

func (r *ChatRepo) ScheduleVisit(ctx context.Context, v *entity.ScheduledVisit) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(v).Error; err != nil {
		log.Error().Err(err).Str("room_id", v.RoomID).Msg("failed to schedule visit")
		return app_error.NewPersistence("failed to schedule visit", "db-error")
	}
	return nil
}

func (r *ChatRepo) ListVisits(ctx context.Context, roomID string) ([]entity.ScheduledVisit, *app_error.AppError) {
	var visits []entity.ScheduledVisit
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("scheduled_date ASC").
		Find(&visits).Error
	if err != nil {
		return nil, app_error.NewPersistence("failed to list visits", "db-error")
	}
	return visits, nil
}

func (r *ChatRepo) InsertMessage(ctx context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError) {
	collection := r.AppState.Mongo.Database(config.Conf.DATABASE.Mongo.Database).Collection("messages")
	if msg.ID.IsZero() {
		msg.ID = bson.NewObjectID()
	}
	if _, err := collection.InsertOne(ctx, msg); err != nil {
		return bson.NilObjectID, app_error.NewPersistence(fmt.Sprintf("failed to persist message: %v", err), "mongo")
	}
	return msg.ID, nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, roomID string, limit int, beforeID *string) ([]entity.Message, *app_error.AppError) {
	collection := r.AppState.Mongo.Database(config.Conf.DATABASE.Mongo.Database).Collection("messages")

	filter := bson.M{"room_id": roomID}
	if beforeID != nil {
		objID, err := bson.ObjectIDFromHex(*beforeID)
		if err != nil {
			return nil, app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("invalid before_id: %v", err), "before-id")
		}
		filter["_id"] = bson.M{"$lt": objID}
	}

	// newest page first, then reversed so callers always see ascending
	// insertion order
	cur, err := collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, app_error.NewPersistence(fmt.Sprintf("failed to fetch messages: %v", err), "mongo")
	}
	defer cur.Close(ctx)

	var messages []entity.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, app_error.NewPersistence(fmt.Sprintf("failed to decode messages: %v", err), "mongo")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *ChatRepo) MarkMessagesRead(ctx context.Context, roomID, readerID string) (int64, *app_error.AppError) {
	collection := r.AppState.Mongo.Database(config.Conf.DATABASE.Mongo.Database).Collection("messages")

	res, err := collection.UpdateMany(ctx,
		bson.M{"room_id": roomID, "sender_id": bson.M{"$ne": readerID}, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, app_error.NewPersistence(fmt.Sprintf("failed to mark messages read: %v", err), "mongo")
	}
	return res.ModifiedCount, nil
}
