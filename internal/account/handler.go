package account

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes account management as JSON over HTTP. Verification talks
// to the repository directly, mirroring the original controller, so only
// CreateAccount goes through the service's transactional boundary.
type Handler struct {
	service *Service
	repo    Repository
	matcher Matcher
}

type createAccountRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type verifyCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyResponse struct {
	Verified bool      `json:"verified"`
	Message  string    `json:"message"`
	Account  *Response `json:"account"`
}

func NewHandler(service *Service, repo Repository, matcher Matcher) *Handler {
	return &Handler{service: service, repo: repo, matcher: matcher}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/api/v1/accounts", h.createAccount)
	app.Post("/api/v1/accounts/verify", h.verifyCredentials)
	app.Get("/api/v1/accounts", h.listAccounts)
}

func (h *Handler) createAccount(c *fiber.Ctx) error {
	payload := new(createAccountRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.CreateAccount(c.UserContext(), Account{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameExists) || errors.Is(err, ErrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(NewResponse(created))
}

func (h *Handler) verifyCredentials(c *fiber.Ctx) error {
	payload := new(verifyCredentialsRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	ctx := c.UserContext()
	acc, err := h.repo.FindByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(verifyResponse{Message: "Username not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	if !h.matcher.Match(acc.Password, payload.Password) {
		return c.JSON(verifyResponse{Message: "Invalid password"})
	}

	if !acc.IsActive() {
		return c.JSON(verifyResponse{Message: "Account is not active"})
	}

	now := time.Now()
	acc.LastLoginAt = &now
	if _, err := h.repo.Save(ctx, acc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	resp := NewResponse(acc)
	return c.JSON(verifyResponse{
		Verified: true,
		Message:  "Credentials verified successfully",
		Account:  &resp,
	})
}

func (h *Handler) listAccounts(c *fiber.Ctx) error {
	accounts, err := h.repo.FindAll(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	response := make([]Response, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, NewResponse(acc))
	}

	return c.JSON(response)
}
