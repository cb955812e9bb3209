package handler

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/service"
	"github.com/orion-app/orion-api/internal/utils"
)

// KnowledgeHandler serves the read-only topic endpoints used by the chat UI.
type KnowledgeHandler struct {
	service service.KnowledgeService
	logger  zerolog.Logger
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(service service.KnowledgeService, logger zerolog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		service: service,
		logger:  logger.With().Str("component", "knowledge_handler").Logger(),
	}
}

// Register wires the topic routes.
func (h *KnowledgeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/suggestions", h.suggestions)
}

func (h *KnowledgeHandler) list(c *fiber.Ctx) error {
	topics, err := h.service.ListTopics(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list topics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list topics")
	}

	return utils.SendSuccess(c, "topics retrieved", topics)
}

func (h *KnowledgeHandler) get(c *fiber.Ctx) error {
	id, err := topicIDFromPath(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid topic id")
	}

	topic, err := h.service.GetTopic(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "topic not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("topic_id", id).Msg("failed to load topic")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load topic")
	}

	return utils.SendSuccess(c, "topic retrieved", topic)
}

func (h *KnowledgeHandler) suggestions(c *fiber.Ctx) error {
	id, err := topicIDFromPath(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid topic id")
	}

	previous := splitAndTrim(c.Query("previous"))

	questions, err := h.service.Suggestions(c.Context(), id, previous)
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "topic not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("topic_id", id).Msg("failed to draw suggestions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load suggestions")
	}

	return utils.SendSuccess(c, "suggestions retrieved", dto.SuggestionResponse{Questions: questions})
}

// topicIDFromPath decodes the :id segment. Topic IDs are titles and may
// contain spaces, which arrive percent-encoded.
func topicIDFromPath(c *fiber.Ctx) (string, error) {
	raw := c.Params("id")
	if raw == "" {
		return "", errors.New("missing topic id")
	}
	id, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", errors.New("invalid topic id")
	}
	return id, nil
}
