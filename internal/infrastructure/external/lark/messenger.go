package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// headerColors picks the card header template per staff role
var headerColors = map[entity.StaffRole]string{
	entity.StaffWarden:      "orange",
	entity.StaffSecurity:    "blue",
	entity.StaffMaintenance: "green",
	entity.StaffAdmin:       "red",
}

// Messenger implements port.MessageSender by posting cards to staff group chats
type Messenger struct {
	client *SDKClient
	chats  map[entity.StaffRole]string
	logger *zap.Logger
}

// NewMessenger creates a new Lark message sender
func NewMessenger(client *SDKClient, chats map[entity.StaffRole]string, logger *zap.Logger) *Messenger {
	return &Messenger{
		client: client,
		chats:  chats,
		logger: logger,
	}
}

// Name identifies the channel in delivery logs
func (m *Messenger) Name() string {
	return "lark"
}

// Send posts msg as an interactive card to the chat of msg.Role
func (m *Messenger) Send(ctx context.Context, msg port.ChatMessage) error {
	chatID := m.chats[msg.Role]
	if chatID == "" {
		return fmt.Errorf("no lark chat configured for role %q", msg.Role)
	}

	card, err := buildCard(msg)
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeInteractive).
			Content(card).
			Build()).
		Build()

	resp, err := m.client.GetClient().Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("chat_id", chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("chat_id", chatID),
		zap.String("role", string(msg.Role)))
	return nil
}

// buildCard renders a chat message as interactive card JSON
func buildCard(msg port.ChatMessage) (string, error) {
	color := headerColors[msg.Role]
	if color == "" {
		color = "grey"
	}

	card := map[string]interface{}{
		"config": map[string]interface{}{"wide_screen_mode": true},
		"header": map[string]interface{}{
			"template": color,
			"title":    map[string]string{"tag": "plain_text", "content": msg.Title},
		},
		"elements": []interface{}{
			map[string]interface{}{
				"tag":  "div",
				"text": map[string]string{"tag": "lark_md", "content": strings.Join(msg.Lines, "\n")},
			},
		},
	}

	data, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("failed to marshal card content: %w", err)
	}
	return string(data), nil
}

// Verify interface compliance
var _ port.MessageSender = (*Messenger)(nil)
