package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fortunecrack/server/internal/model"
)

// maxChatMessages は1リクエストで受け付けるメッセージ数の上限。
const maxChatMessages = 50

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Chat(ctx context.Context, messages []model.ChatMessage, temperature float32) (string, error)
}

// ChatHandler はフォローアップ質問チャットのHTTPハンドラー。
type ChatHandler struct {
	chatService ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(chatService ChatServiceInterface) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// chatRequest はチャットリクエストのボディ。
type chatRequest struct {
	Messages    []model.ChatMessage `json:"messages"`
	Temperature float32             `json:"temperature,omitempty"`
}

// chatResponse はチャットレスポンス。
type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat はロール付きメッセージ列を生成バックエンドに中継する。
// 運勢生成と異なりフォールバックせず、失敗はCHAT_FAILEDとして返す。
// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディが不正です"))
		return
	}

	if len(req.Messages) == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("messagesは1件以上指定してください"))
		return
	}
	if len(req.Messages) > maxChatMessages {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("messagesが多すぎます"))
		return
	}
	for _, m := range req.Messages {
		switch m.Role {
		case model.ChatRoleSystem, model.ChatRoleUser, model.ChatRoleAssistant:
		default:
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("roleはsystem/user/assistantのいずれかを指定してください"))
			return
		}
	}

	reply, err := h.chatService.Chat(r.Context(), req.Messages, req.Temperature)
	if err != nil {
		slog.Warn("チャット補完に失敗しました", slog.String("error", err.Error()))
		// 設定不備などのAPIErrorはそのままマッピングし、それ以外は外部障害として扱う
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewChatFailedError())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
