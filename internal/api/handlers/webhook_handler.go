package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"expense-bot/internal/dto"
	"expense-bot/internal/service"
	"expense-bot/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// maxMedia is the most attachments the transport sends with one message.
const maxMedia = 10

// MessageDispatcher queues an inbound message for background handling.
type MessageDispatcher interface {
	Dispatch(msg dto.InboundMessage) error
}

type WebhookHandler struct {
	dispatcher MessageDispatcher
	logger     *zap.Logger
}

func NewWebhookHandler(dispatcher MessageDispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Receive godoc
// @Summary Receive an inbound message
// @Description Twilio messaging webhook. The message is processed in the background and the reply is sent through the Twilio API.
// @Tags webhook
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string true "Sender address"
// @Param Body formData string false "Message text"
// @Param NumMedia formData int false "Number of attachments"
// @Success 200 {string} string "Empty TwiML response"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	msg, err := parseInbound(c)
	if err != nil {
		h.logger.Warn("Rejected webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.dispatcher.Dispatch(msg); err != nil {
		if errors.Is(err, service.ErrDispatcherClosed) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "Service is shutting down"})
		}
		h.logger.Error("Failed to dispatch message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to accept message"})
	}

	logger.ForMessage(h.logger, msg.ID, msg.From).Info("Message accepted",
		zap.Int("attachments", len(msg.Attachments)),
	)
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.SendString(emptyTwiML)
}

// parseInbound copies every form value: the message outlives the request and
// fiber reuses the request buffer once the handler returns.
func parseInbound(c *fiber.Ctx) (dto.InboundMessage, error) {
	msg := dto.InboundMessage{
		ID:   formValue(c, "MessageSid"),
		From: strings.TrimSpace(formValue(c, "From")),
		Body: formValue(c, "Body"),
	}
	if msg.From == "" {
		return msg, errors.New("From is required")
	}

	numMedia, err := formInt(c.FormValue("NumMedia"))
	if err != nil || numMedia < 0 || numMedia > maxMedia {
		return msg, fmt.Errorf("invalid NumMedia %q", c.FormValue("NumMedia"))
	}

	for i := 0; i < numMedia; i++ {
		url := formValue(c, fmt.Sprintf("MediaUrl%d", i))
		if url == "" {
			return msg, fmt.Errorf("MediaUrl%d is missing", i)
		}
		msg.Attachments = append(msg.Attachments, dto.Attachment{
			URL:         url,
			ContentType: formValue(c, fmt.Sprintf("MediaContentType%d", i)),
		})
	}
	return msg, nil
}

func formValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.FormValue(key))
}

func formInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
