package worker_handler

import (
	"encoding/json"
	"fmt"

	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

func (wh *WorkerHandler) HandleStatusChanged(raw json.RawMessage) error {
	var payload queue.StatusChangedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid status change payload: %w", err)
	}

	event := websocket.NewStatusChangedEvent(payload.RoomID, payload.Entity, payload.EntityID, payload.NewStatus)
	event.Data["old_status"] = payload.OldStatus
	event.Data["changed_by"] = payload.ChangedBy

	wh.Hub.Publish(payload.RoomID, event)
	return nil
}

func (wh *WorkerHandler) HandleInquiryAlert(raw json.RawMessage) error {
	var payload queue.InquiryAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid inquiry alert payload: %w", err)
	}

	event := websocket.NewServerEvent("inquiry_alert", "", map[string]any{
		"inquiry_id":    payload.InquiryID,
		"property_id":   payload.PropertyID,
		"visitor_email": payload.VisitorEmail,
		"message":       payload.Message,
	})

	wh.Hub.BroadcastToUser(payload.OwnerID, event)
	return nil
}

func (wh *WorkerHandler) HandleEscalationAlert(raw json.RawMessage) error {
	var payload queue.EscalationAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid escalation alert payload: %w", err)
	}

	event := websocket.NewServerEvent("escalation_alert", payload.RoomID, map[string]any{
		"message_id": payload.MessageID,
		"sender_id":  payload.SenderID,
		"area":       payload.Area,
	})

	for _, managerID := range payload.ManagerIDs {
		wh.Hub.BroadcastToUser(managerID, event)
	}
	return nil
}
