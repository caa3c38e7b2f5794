package signup

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAuthRoutes mounts the registration and sign-in surface:
//
//	POST /auth/register
//	POST /auth/verify-otp
//	POST /auth/login
//	GET  /auth/me        (requires a bearer token)
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	grp := app.Group("/auth")
	grp.Post("/register", controller.Register)
	grp.Post("/verify-otp", controller.VerifyOTP)
	grp.Post("/login", controller.Login)
	grp.Get("/me", Protected(controller.Tokens), controller.Me)
}

type AuthController struct {
	Logger    Logger
	Lifecycle *Lifecycle
	Tokens    TokenService
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithLifecycle(lifecycle *Lifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Lifecycle = lifecycle
		return c
	}
}

func WithTokenService(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Role     string `json:"role" form:"role"`
	Password string `json:"password" form:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
			validation.Length(1, 120),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Phone,
			validation.By(validPhoneNumber),
		),
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(RoleStudent, RoleAdmin),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			// bcrypt truncates past 72 bytes
			validation.Length(6, 72),
		),
	)
}

// VerifyOTPRequest payload
type VerifyOTPRequest struct {
	Email string `json:"email" form:"email"`
	OTP   string `json:"otp" form:"otp"`
}

func (r VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.OTP,
			validation.Required,
			validation.Length(OTPDigits, OTPDigits),
			is.Digit,
		),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	msg := RegisterMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Role:     payload.Role,
		Password: payload.Password,
	}

	if err := a.Lifecycle.Register(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered. Verify OTP.",
	})
}

func (a *AuthController) VerifyOTP(c *fiber.Ctx) error {
	payload := new(VerifyOTPRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("verify-otp parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	if err := a.Lifecycle.VerifyOTP(c.UserContext(), payload.Email, payload.OTP); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Account verified",
	})
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	token, err := a.Lifecycle.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": token,
	})
}

// Me echoes the claims of the presented session token.
func (a *AuthController) Me(c *fiber.Ctx) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": ErrTokenMalformed.Message,
		})
	}

	return c.JSON(fiber.Map{
		"sub":        claims.Subject(),
		"role":       claims.Role(),
		"expires_at": claims.Expires(),
	})
}

// renderError maps a lifecycle failure onto its HTTP status. Variants
// carry their status in the error value; only internal faults are
// rewritten so store or transport details never reach the client.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Error("auth request failed",
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"path", c.Path(),
	)

	status := richErr.Code
	message := richErr.Message
	if status == 0 || richErr.Category == goerrors.CategoryInternal {
		status = fiber.StatusInternalServerError
		message = "An unexpected server error occurred"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": message,
	})
}

func validPhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}
