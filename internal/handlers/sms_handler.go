package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type smsResponder interface {
	RespondToSMS(ctx context.Context, from, body, messageSID string) (string, error)
}

type smsSender interface {
	SendSMS(to, body string) error
}

// SMSHandler receives Twilio's inbound message webhook. It always answers
// 200 with empty TwiML: the reply rides out through the REST API, and a
// failed reply degrades to silence rather than a Twilio retry loop.
type SMSHandler struct {
	assistant smsResponder
	sms       smsSender
}

func NewSMSHandler(assistant smsResponder, sms smsSender) *SMSHandler {
	return &SMSHandler{assistant: assistant, sms: sms}
}

func (h *SMSHandler) Inbound(c *fiber.Ctx) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	messageSID := c.FormValue("MessageSid")

	if from != "" {
		reply, err := h.assistant.RespondToSMS(c.Context(), from, body, messageSID)
		if err != nil {
			log.Printf("inbound sms from %s: %v", from, err)
		} else if reply != "" && h.sms != nil {
			if err := h.sms.SendSMS(from, reply); err != nil {
				log.Printf("reply sms to %s: %v", from, err)
			}
		}
	}

	c.Set(fiber.HeaderContentType, "text/xml")
	return c.SendString(emptyTwiML)
}
