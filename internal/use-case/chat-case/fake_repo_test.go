package chat_service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thira3721-ai/roomhy/internal/entity"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeRepo is an in-memory ChatRepoContract with per-call failure
// switches for exercising the dual-write ordering.
type fakeRepo struct {
	mu sync.Mutex

	rooms        map[string]*entity.Room
	participants map[string]map[string]bool
	messages     []entity.Message
	visits       []entity.ScheduledVisit
	groups       map[string]*entity.GroupChat
	tickets      map[string]*entity.SupportTicket
	inquiries    map[string]*entity.PropertyInquiry

	failInsert bool
	failTouch  bool
	touchCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rooms:        make(map[string]*entity.Room),
		participants: make(map[string]map[string]bool),
		groups:       make(map[string]*entity.GroupChat),
		tickets:      make(map[string]*entity.SupportTicket),
		inquiries:    make(map[string]*entity.PropertyInquiry),
	}
}

func (f *fakeRepo) addRoom(rm *entity.Room, userIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[rm.ID] = rm
	if f.participants[rm.ID] == nil {
		f.participants[rm.ID] = make(map[string]bool)
	}
	for _, id := range userIDs {
		f.participants[rm.ID][id] = true
	}
}

func (f *fakeRepo) EnsureRoom(ctx context.Context, rm *entity.Room, parts []entity.RoomParticipant) (*entity.Room, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.rooms[rm.ID]
	if !ok {
		f.rooms[rm.ID] = rm
		existing = rm
	}
	if f.participants[rm.ID] == nil {
		f.participants[rm.ID] = make(map[string]bool)
	}
	for _, p := range parts {
		f.participants[rm.ID][p.UserID] = true
	}
	return existing, nil
}

func (f *fakeRepo) FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rm, ok := f.rooms[roomID]
	if !ok {
		return nil, app_error.NewNotFound("room not found", "not-found")
	}
	return rm, nil
}

func (f *fakeRepo) ListRoomsForUser(ctx context.Context, userID string) ([]entity.Room, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Room
	for id, members := range f.participants {
		if members[userID] {
			if rm, ok := f.rooms[id]; ok {
				out = append(out, *rm)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) FindRoomParticipants(ctx context.Context, roomID string) ([]entity.RoomParticipant, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.RoomParticipant
	for userID := range f.participants[roomID] {
		out = append(out, entity.RoomParticipant{RoomID: roomID, UserID: userID})
	}
	return out, nil
}

func (f *fakeRepo) IsParticipant(ctx context.Context, roomID, userID string) (bool, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[roomID][userID], nil
}

func (f *fakeRepo) AddParticipant(ctx context.Context, p *entity.RoomParticipant) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.participants[p.RoomID] == nil {
		f.participants[p.RoomID] = make(map[string]bool)
	}
	f.participants[p.RoomID][p.UserID] = true
	return nil
}

func (f *fakeRepo) SetRoomStatus(ctx context.Context, roomID, status string) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	rm, ok := f.rooms[roomID]
	if !ok {
		return app_error.NewNotFound("room not found", "not-found")
	}
	rm.Status = status
	return nil
}

func (f *fakeRepo) TouchRoomActivity(ctx context.Context, roomID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchCalls++
	if f.failTouch {
		return errors.New("touch failed")
	}
	if rm, ok := f.rooms[roomID]; ok {
		rm.MessageCount++
		rm.LastMessageAt = &at
	}
	return nil
}

func (f *fakeRepo) ScheduleVisit(ctx context.Context, v *entity.ScheduledVisit) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, *v)
	return nil
}

func (f *fakeRepo) ListVisits(ctx context.Context, roomID string) ([]entity.ScheduledVisit, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ScheduledVisit
	for _, v := range f.visits {
		if v.RoomID == roomID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertMessage(ctx context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return bson.NilObjectID, app_error.NewPersistence("mongo down", "mongo")
	}
	msg.ID = bson.NewObjectID()
	f.messages = append(f.messages, *msg)
	return msg.ID, nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, roomID string, limit int, beforeID *string) ([]entity.Message, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeRepo) MarkMessagesRead(ctx context.Context, roomID, readerID string) (int64, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.messages {
		if f.messages[i].RoomID == roomID && f.messages[i].SenderID != readerID && !f.messages[i].Read {
			f.messages[i].Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CreateGroup(ctx context.Context, g *entity.GroupChat) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[g.GroupID] = g
	return nil
}

func (f *fakeRepo) FindGroup(ctx context.Context, groupID string) (*entity.GroupChat, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, app_error.NewNotFound("group not found", "not-found")
	}
	return g, nil
}

func (f *fakeRepo) ListGroupsForUser(ctx context.Context, userID string) ([]entity.GroupChat, *app_error.AppError) {
	return nil, nil
}

func (f *fakeRepo) TouchGroupActivity(ctx context.Context, groupID string, at time.Time) error {
	return nil
}

func (f *fakeRepo) CreateTicket(ctx context.Context, tk *entity.SupportTicket) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[tk.TicketID] = tk
	return nil
}

func (f *fakeRepo) FindTicket(ctx context.Context, ticketID string) (*entity.SupportTicket, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tk, ok := f.tickets[ticketID]
	if !ok {
		return nil, app_error.NewNotFound("ticket not found", "not-found")
	}
	return tk, nil
}

func (f *fakeRepo) ListTickets(ctx context.Context, status, userID string) ([]entity.SupportTicket, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.SupportTicket
	for _, tk := range f.tickets {
		if status != "" && tk.Status != status {
			continue
		}
		if userID != "" && tk.ReporterID != userID {
			continue
		}
		out = append(out, *tk)
	}
	return out, nil
}

func (f *fakeRepo) UpdateTicketStatus(ctx context.Context, ticketID, status string) (*entity.SupportTicket, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tk, ok := f.tickets[ticketID]
	if !ok {
		return nil, app_error.NewNotFound("ticket not found", "not-found")
	}
	tk.Status = status
	return tk, nil
}

func (f *fakeRepo) TouchTicketActivity(ctx context.Context, ticketID string, at time.Time) error {
	return nil
}

func (f *fakeRepo) CreateInquiry(ctx context.Context, q *entity.PropertyInquiry) *app_error.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inquiries[q.InquiryID] = q
	return nil
}

func (f *fakeRepo) FindInquiry(ctx context.Context, inquiryID string) (*entity.PropertyInquiry, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.inquiries[inquiryID]
	if !ok {
		return nil, app_error.NewNotFound("inquiry not found", "not-found")
	}
	return q, nil
}

func (f *fakeRepo) RespondInquiry(ctx context.Context, inquiryID, status string) (*entity.PropertyInquiry, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.inquiries[inquiryID]
	if !ok {
		return nil, app_error.NewNotFound("inquiry not found", "not-found")
	}
	if q.Status != "requested" {
		return nil, app_error.NewValidation("inquiry already "+q.Status, "status")
	}
	q.Status = status
	now := time.Now()
	q.RespondedAt = &now
	q.ChatStarted = status == "accepted"
	return q, nil
}

func (f *fakeRepo) ListInquiriesForProperty(ctx context.Context, propertyID, status string) ([]entity.PropertyInquiry, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.PropertyInquiry
	for _, q := range f.inquiries {
		if q.PropertyID == propertyID && (status == "" || q.Status == status) {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListInquiriesForVisitor(ctx context.Context, visitorID string) ([]entity.PropertyInquiry, *app_error.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.PropertyInquiry
	for _, q := range f.inquiries {
		if q.VisitorID == visitorID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeRepo) TouchInquiryActivity(ctx context.Context, inquiryID string, at time.Time) error {
	return nil
}
