package lark

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOpenAPI answers the token and message endpoints of the open platform
func fakeOpenAPI(t *testing.T, messageCode int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/tenant_access_token/internal"):
			_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`))
		case r.URL.Path == "/open-apis/im/v1/messages":
			assert.Equal(t, "chat_id", r.URL.Query().Get("receive_id_type"))

			var body struct {
				ReceiveID string `json:"receive_id"`
				MsgType   string `json:"msg_type"`
				Content   string `json:"content"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "oc_123", body.ReceiveID)
			assert.Equal(t, "text", body.MsgType)
			assert.JSONEq(t, `{"text":"Score: 100/100"}`, body.Content)

			if messageCode != 0 {
				_, _ = w.Write([]byte(`{"code":230002,"msg":"bot not in chat"}`))
				return
			}
			_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"message_id":"om_1"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestChatMessenger_PostText(t *testing.T) {
	srv := fakeOpenAPI(t, 0)
	defer srv.Close()

	client := NewSDKClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: srv.URL}, zap.NewNop())
	messenger := NewChatMessenger(client, zap.NewNop())

	id, err := messenger.PostText(context.Background(), "oc_123", "Score: 100/100")
	require.NoError(t, err)
	assert.Equal(t, "om_1", id)
}

func TestChatMessenger_APIError(t *testing.T) {
	srv := fakeOpenAPI(t, 230002)
	defer srv.Close()

	client := NewSDKClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: srv.URL}, zap.NewNop())
	messenger := NewChatMessenger(client, zap.NewNop())

	_, err := messenger.PostText(context.Background(), "oc_123", "Score: 100/100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=230002")
}
