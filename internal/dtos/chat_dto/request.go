package chat_dto

type CreateRoomRequest struct {
	Kind         string   `json:"kind" validate:"required,oneof=direct booking group support inquiry"`
	Participants []string `json:"participants" validate:"omitempty,dive,required"`
	EntityID     string   `json:"entity_id,omitempty"`
	PropertyID   string   `json:"property_id,omitempty"`
	PropertyName string   `json:"property_name,omitempty"`
	BookingID    string   `json:"booking_id,omitempty"`
	Area         string   `json:"area,omitempty"`
}

type SendMessageRequest struct {
	Body        string `json:"body" validate:"required,min=1"`
	Kind        string `json:"kind" validate:"omitempty,oneof=text system escalation"`
	FileURL     string `json:"file_url,omitempty" validate:"omitempty,url"`
	IsEscalated bool   `json:"is_escalated,omitempty"`
}

type GetMessagesRequest struct {
	Limit    int     `json:"limit" validate:"omitempty,min=1,max=100"`
	BeforeID *string `json:"before_id,omitempty"`
}

type ScheduleVisitRequest struct {
	VisitType     string `json:"visit_type" validate:"required,oneof=physical virtual"`
	ScheduledDate string `json:"scheduled_date" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members" validate:"omitempty,dive,required"`
}

type AddGroupMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type CreateTicketRequest struct {
	Subject     string `json:"subject" validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in-progress resolved closed"`
}

type SendInquiryRequest struct {
	PropertyID   string `json:"property_id" validate:"required"`
	OwnerID      string `json:"owner_id" validate:"required"`
	VisitorEmail string `json:"visitor_email" validate:"required,email"`
	VisitorPhone string `json:"visitor_phone,omitempty"`
	Message      string `json:"message,omitempty"`
}

type RespondInquiryRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}
