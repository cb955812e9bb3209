package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/service"
	"github.com/orion-app/orion-api/internal/utils"
)

// ChatHandler handles the per-user chat thread endpoints. Thread titles can
// contain spaces and punctuation, so they travel as query parameters rather
// than path segments.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register wires the chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Get("", h.listThreads)
	router.Get("/messages", h.loadMessages)
	router.Post("/messages", h.sendMessage)
	router.Delete("", h.deleteThread)
}

func (h *ChatHandler) listThreads(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	threads, err := h.service.ListThreads(c.Context(), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to list threads")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list chats")
	}

	return utils.SendSuccess(c, "chats retrieved", threads)
}

func (h *ChatHandler) loadMessages(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "title query parameter is required")
	}

	messages, err := h.service.LoadMessages(c.Context(), userID, title)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to load messages")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load messages")
	}

	return utils.SendSuccess(c, "messages retrieved", messages)
}

func (h *ChatHandler) sendMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.SendMessage(c.Context(), userID, payload)
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrEmptyMessage):
			return utils.SendError(c, fiber.StatusBadRequest, "message and topic are required")
		case errors.Is(err, service.ErrTopicNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "topic not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to send message")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to send message")
		}
	}

	return utils.SendSuccess(c, "message sent", resp)
}

func (h *ChatHandler) deleteThread(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "title query parameter is required")
	}

	if err := h.service.DeleteThread(c.Context(), userID, title); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to delete thread")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete chat")
	}

	return utils.SendSuccess(c, "chat deleted", nil)
}
