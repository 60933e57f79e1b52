package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/reset-corp/reset-backend/internal/services"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// EmailHandler manages the public contact and quote request forms.
type EmailHandler struct {
	email *services.EmailService
}

// NewEmailHandler constructs EmailHandler.
func NewEmailHandler(email *services.EmailService) *EmailHandler {
	return &EmailHandler{email: email}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact forwards a contact form submission to the admin inbox.
func (h *EmailHandler) Contact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ve := &utils.ValidationErrors{}
	ve.Require("name", req.Name)
	ve.Require("email", req.Email)
	ve.Require("message", req.Message)
	if req.Email != "" && !utils.ValidEmail(req.Email) {
		ve.Add("email", "must be a valid email address")
	}
	if ve.Any() {
		return ve
	}

	if err := h.email.SendToAdmin("Contact request from "+req.Name,
		services.ContactBody(req.Name, req.Email, req.Message)); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to send message")
	}

	return c.JSON(fiber.Map{"success": true, "message": "message sent"})
}

type quoteRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Details string `json:"details"`
}

// Quote forwards a quote request to the admin inbox.
func (h *EmailHandler) Quote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ve := &utils.ValidationErrors{}
	ve.Require("name", req.Name)
	ve.Require("email", req.Email)
	ve.Require("service", req.Service)
	if req.Email != "" && !utils.ValidEmail(req.Email) {
		ve.Add("email", "must be a valid email address")
	}
	if ve.Any() {
		return ve
	}

	if err := h.email.SendToAdmin("Quote request from "+req.Name,
		services.QuoteBody(req.Name, req.Email, req.Phone, req.Service, req.Details)); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to send message")
	}

	return c.JSON(fiber.Map{"success": true, "message": "request sent"})
}
