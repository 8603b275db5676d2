package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api/response"
	"github.com/Rrens/kb-assistant/internal/domain"
)

// ChatServicer handles one chat turn
type ChatServicer interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chatService ChatServicer
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatServicer) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles a single conversational turn
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) {
			response.Conflict(w, "another message of this session is still being processed")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("chat turn failed")
		response.ServiceUnavailable(w, "session store unavailable")
		return
	}

	response.OK(w, resp)
}
