package service

import (
	"context"
	"fmt"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/dispatcher"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
)

// NotificationService turns router events into staff chat messages
type NotificationService interface {
	// Register subscribes the service to every notification event type
	Register(d dispatcher.Dispatcher)

	// Deliver sends one event on every channel and logs each attempt
	Deliver(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	senders          []port.MessageSender
	notificationRepo port.NotificationRepository
	logger           Logger
	clock            func() time.Time
}

// NewNotificationService creates a new NotificationService.
// notificationRepo may be nil, in which case attempts are only logged.
func NewNotificationService(
	senders []port.MessageSender,
	notificationRepo port.NotificationRepository,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		senders:          senders,
		notificationRepo: notificationRepo,
		logger:           logger,
		clock:            time.Now,
	}
}

// Register subscribes Deliver to all event types
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range event.AllTypes() {
		d.SubscribeNamed(t, "staff_notification", s.Deliver)
	}
}

// Deliver sends evt to its staff role on each channel. Every channel is
// attempted; the first failure is returned.
func (s *notificationServiceImpl) Deliver(ctx context.Context, evt *event.Event) error {
	msg, err := BuildChatMessage(evt)
	if err != nil {
		s.logger.Error("Cannot build notification", "error", err, "event_id", evt.ID, "type", evt.Type)
		return err
	}

	var firstErr error
	for _, sender := range s.senders {
		delivery := &entity.NotificationDelivery{
			EventID:       evt.ID,
			Kind:          evt.Type.String(),
			Channel:       sender.Name(),
			Recipient:     string(msg.Role),
			Status:        entity.NotificationStatusSent,
			CorrelationID: evt.CorrelationID,
			CreatedAt:     s.clock(),
		}

		if err := sender.Send(ctx, msg); err != nil {
			delivery.Status = entity.NotificationStatusFailed
			delivery.ErrorMessage = err.Error()
			s.logger.Error("Failed to send notification",
				"error", err,
				"channel", sender.Name(),
				"type", evt.Type,
				"correlation_id", evt.CorrelationID,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("send via %s: %w", sender.Name(), err)
			}
		} else {
			s.logger.Info("Notification sent",
				"channel", sender.Name(),
				"type", evt.Type,
				"role", msg.Role,
				"correlation_id", evt.CorrelationID,
			)
		}

		s.logDelivery(ctx, delivery)
	}

	return firstErr
}

func (s *notificationServiceImpl) logDelivery(ctx context.Context, delivery *entity.NotificationDelivery) {
	if s.notificationRepo == nil {
		return
	}
	if err := s.notificationRepo.Create(ctx, delivery); err != nil {
		s.logger.Error("Failed to log notification delivery", "error", err, "event_id", delivery.EventID)
	}
}

// notificationRoles maps event types to the staff role that receives them.
// Escalations carry their role in the payload.
var notificationRoles = map[event.Type]entity.StaffRole{
	event.TypeGuestApproved:        entity.StaffSecurity,
	event.TypeLeaveApproved:        entity.StaffWarden,
	event.TypeMaintenanceScheduled: entity.StaffMaintenance,
	event.TypeCleaningScheduled:    entity.StaffMaintenance,
	event.TypeStaffEscalation:      entity.StaffWarden,
	event.TypeTriageFailure:        entity.StaffWarden,
}

// BuildChatMessage renders the staff message of an event
func BuildChatMessage(evt *event.Event) (port.ChatMessage, error) {
	if evt == nil {
		return port.ChatMessage{}, fmt.Errorf("event cannot be nil")
	}
	role, ok := notificationRoles[evt.Type]
	if !ok {
		return port.ChatMessage{}, fmt.Errorf("no recipient for event type %q", evt.Type)
	}
	if r := evt.GetPayloadString(event.KeyStaffRole); r != "" {
		role = entity.StaffRole(r)
	}

	requester := evt.GetPayloadString(event.KeyRequesterID)
	room := evt.GetPayloadString(event.KeyRoomNumber)
	msg := port.ChatMessage{Role: role}

	switch evt.Type {
	case event.TypeGuestApproved:
		msg.Title = "Guest visit approved"
		msg.Lines = []string{
			"Guest: " + evt.GetPayloadString(event.KeyGuestName),
			"Host: " + requester + roomSuffix(room),
			"Visit: " + dateRange(evt.GetPayloadString(event.KeyStartDate), evt.GetPayloadString(event.KeyEndDate)),
		}
	case event.TypeLeaveApproved:
		msg.Title = "Leave approved"
		msg.Lines = []string{
			"Resident: " + requester + roomSuffix(room),
			"Dates: " + dateRange(evt.GetPayloadString(event.KeyStartDate), evt.GetPayloadString(event.KeyEndDate)),
			"Reason: " + evt.GetPayloadString(event.KeyReason),
		}
	case event.TypeMaintenanceScheduled:
		msg.Title = "Maintenance work order " + evt.GetPayloadString(event.KeyWorkOrderID)
		msg.Lines = []string{
			"Problem: " + evt.GetPayloadString(event.KeyDescription),
			"Location: " + evt.GetPayloadString(event.KeyLocation),
			"Urgency: " + evt.GetPayloadString(event.KeyUrgency),
			"Scheduled: " + evt.GetPayloadString(event.KeyScheduled),
		}
	case event.TypeCleaningScheduled:
		msg.Title = "Room cleaning " + evt.GetPayloadString(event.KeyWorkOrderID)
		msg.Lines = []string{
			"Room: " + room,
			"Scheduled: " + evt.GetPayloadString(event.KeyScheduled),
		}
	case event.TypeStaffEscalation:
		msg.Title = fmt.Sprintf("Approval needed: %s request (%s priority)",
			entity.RequestType(evt.GetPayloadString(event.KeyRequestType)).Noun(), evt.GetPayloadString(event.KeyPriority))
		msg.Lines = []string{
			"Resident: " + requester + roomSuffix(room),
			"Reason: " + evt.GetPayloadString(event.KeyReason),
		}
		if v := evt.GetPayloadString(event.KeyStartDate); v != "" {
			msg.Lines = append(msg.Lines, "Dates: "+dateRange(v, evt.GetPayloadString(event.KeyEndDate)))
		}
		if v := evt.GetPayloadString(event.KeyGuestName); v != "" {
			msg.Lines = append(msg.Lines, "Guest: "+v)
		}
	case event.TypeTriageFailure:
		msg.Title = "Message could not be processed"
		msg.Lines = []string{
			"Resident: " + requester + roomSuffix(room),
			"Message: " + evt.GetPayloadString(event.KeyDescription),
			"Error: " + evt.GetPayloadString(event.KeyReason),
		}
	}

	if evt.RecordID > 0 {
		msg.Lines = append(msg.Lines, fmt.Sprintf("Record: #%d", evt.RecordID))
	}
	msg.Lines = append(msg.Lines, "Ref: "+evt.CorrelationID)
	return msg, nil
}

func roomSuffix(room string) string {
	if room == "" {
		return ""
	}
	return " (room " + room + ")"
}

func dateRange(start, end string) string {
	if end == "" || end == start {
		return start
	}
	return start + " to " + end
}

