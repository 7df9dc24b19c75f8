package queue

import "encoding/json"

// Job types handled by the notification worker pool. Chat messages are
// never queued: the send path broadcasts synchronously so delivery
// order matches persistence order. The queue carries only unordered
// side-channel notifications.
const (
	JobNotifyStatusChanged = "notify_status_changed"
	JobInquiryAlert        = "inquiry_alert"
	JobEscalationAlert     = "escalation_alert"
)

// Priorities. Lower score drains first.
const (
	PriorityHigh   = 1
	PriorityNormal = 5
	PriorityLow    = 9
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Priority  int             `json:"priority"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpireAt  int64           `json:"expired_at"`
	// NextRetryAt holds the backoff deadline for requeued jobs; zero
	// means ready now.
	NextRetryAt int64 `json:"next_retry_at,omitempty"`
}

// StatusChangedPayload announces a ticket or inquiry transition to the
// room and the monitor mirror.
type StatusChangedPayload struct {
	RoomID    string `json:"room_id"`
	Entity    string `json:"entity"` // ticket | inquiry
	EntityID  string `json:"entity_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

// InquiryAlertPayload pings the property owner about a fresh inquiry.
type InquiryAlertPayload struct {
	OwnerID      string `json:"owner_id"`
	InquiryID    string `json:"inquiry_id"`
	PropertyID   string `json:"property_id"`
	VisitorEmail string `json:"visitor_email"`
	Message      string `json:"message"`
}

// EscalationAlertPayload pings area managers about an escalated message.
type EscalationAlertPayload struct {
	RoomID     string   `json:"room_id"`
	MessageID  string   `json:"message_id"`
	SenderID   string   `json:"sender_id"`
	Area       string   `json:"area"`
	ManagerIDs []string `json:"manager_ids"`
}

func MustMarshal(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	return b
}
