package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/http/middleware"
	"github.com/PracticalMetal/major-notice/internal/service"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// SignUp registers a user and, when needed, the organization.
//
// @Summary  Sign up
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body  service.SignUpInput  true  "registration form"
// @Success  201  {object}  model.User
// @Router   /auth/signup [post]
func SignUp(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SignUpInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		u, err := svc.SignUp(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// SignIn exchanges credentials for a session token.
//
// @Summary  Sign in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Success  200  {object}  service.Session
// @Router   /auth/signin [post]
func SignIn(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		sess, err := svc.SignIn(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sess)
	}
}

func SignOut(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.SignOut(c.UserContext(), middleware.TokenFrom(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RequestPasswordReset always answers 202 for well-formed requests so that
// registered emails cannot be probed.
func RequestPasswordReset(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		if err := svc.SendPasswordReset(c.UserContext(), req.Email); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

func ConfirmPasswordReset(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetConfirmRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		if err := svc.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func CurrentUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.CurrentUser(c.UserContext(), uid(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}

func UpdateProfile(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		u, err := svc.UpdateProfile(c.UserContext(), uid(c), req.FirstName, req.LastName)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}
