package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/service"
	"github.com/orion-app/orion-api/internal/utils"
)

const maxKnowledgeUploadBytes = 1 << 20

// AdminKnowledgeHandler manages knowledge documents from the admin console.
type AdminKnowledgeHandler struct {
	service service.KnowledgeService
	logger  zerolog.Logger
}

// NewAdminKnowledgeHandler constructs the handler.
func NewAdminKnowledgeHandler(service service.KnowledgeService, logger zerolog.Logger) *AdminKnowledgeHandler {
	return &AdminKnowledgeHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_knowledge_handler").Logger(),
	}
}

// Register wires the admin topic management routes.
func (h *AdminKnowledgeHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Post("/upload", h.upload)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *AdminKnowledgeHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateTopicRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	topic, err := h.service.CreateTopic(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "title, content and questions are required")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create topic")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create topic")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "topic created", topic)
}

// upload accepts a multipart form with a plain-text document as the content
// file and the title and questions as form fields.
func (h *AdminKnowledgeHandler) upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "content file is required")
	}
	if fileHeader.Size > maxKnowledgeUploadBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "content file too large")
	}

	content, err := readUploadedText(fileHeader)
	if err != nil {
		if errors.Is(err, errNotPlainText) {
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, "content file must be plain text")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to read uploaded document")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to read uploaded document")
	}

	payload := dto.CreateTopicRequest{
		Title:     c.FormValue("title"),
		Content:   content,
		Questions: c.FormValue("questions"),
	}

	topic, err := h.service.CreateTopic(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "title, content and questions are required")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create topic from upload")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create topic")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "topic created", topic)
}

func (h *AdminKnowledgeHandler) update(c *fiber.Ctx) error {
	id, err := topicIDFromPath(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid topic id")
	}

	var payload dto.UpdateTopicRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	topic, err := h.service.UpdateTopic(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "content and questions are required")
		case errors.Is(err, service.ErrTopicNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "topic not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("topic_id", id).Msg("failed to update topic")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update topic")
		}
	}

	return utils.SendSuccess(c, "topic updated", topic)
}

func (h *AdminKnowledgeHandler) delete(c *fiber.Ctx) error {
	id, err := topicIDFromPath(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid topic id")
	}

	if err := h.service.DeleteTopic(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "topic not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("topic_id", id).Msg("failed to delete topic")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete topic")
	}

	return utils.SendSuccess(c, "topic deleted", nil)
}

var errNotPlainText = errors.New("uploaded file is not plain text")

func readUploadedText(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxKnowledgeUploadBytes))
	if err != nil {
		return "", err
	}

	mime := mimetype.Detect(data)
	if !mime.Is("text/plain") && !strings.HasPrefix(mime.String(), "text/") {
		return "", errNotPlainText
	}

	return string(data), nil
}
