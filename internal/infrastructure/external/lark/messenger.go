package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

const (
	receiveIDTypeChat = "chat_id"
	msgTypeText       = "text"
)

// ChatMessenger posts plain text messages to Lark group chats
type ChatMessenger struct {
	client *lark.Client
	logger *zap.Logger
}

// NewChatMessenger wraps an SDK client
func NewChatMessenger(client *lark.Client, logger *zap.Logger) *ChatMessenger {
	return &ChatMessenger{client: client, logger: logger}
}

// PostText sends text to chatID and returns the new message id
func (m *ChatMessenger) PostText(ctx context.Context, chatID, text string) (string, error) {
	content, err := textContent(text)
	if err != nil {
		return "", err
	}

	resp, err := m.client.Im.Message.Create(ctx, larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeChat).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgTypeText).
			Content(content).
			Build()).
		Build())
	if err != nil {
		return "", fmt.Errorf("failed to post to chat %s: %w", chatID, err)
	}
	if !resp.Success() {
		m.logger.Error("Lark rejected message",
			zap.String("chat_id", chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	if resp.Data == nil || resp.Data.MessageId == nil {
		return "", nil
	}
	return *resp.Data.MessageId, nil
}

// textContent encodes the content body of a "text" message
func textContent(text string) (string, error) {
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message content: %w", err)
	}
	return string(b), nil
}
