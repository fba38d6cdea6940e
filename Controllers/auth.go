package Controllers

import (
	"time"

	"Dashspect/Models"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, now: time.Now}
}

type RegisterInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Permission  int    `json:"permission" validate:"omitempty,oneof=1 2 3"`
	Role        string `json:"role"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	LocationIDs []uint `json:"location_ids"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account; admins only
func (c *AuthController) Register(ctx *fiber.Ctx) error {
	var input RegisterInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	password, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := Models.User{
		Name:       input.Name,
		Email:      input.Email,
		Password:   password,
		Permission: input.Permission,
		Role:       input.Role,
		Phone:      input.Phone,
		IsActive:   true,
	}
	if user.Permission == 0 {
		user.Permission = Models.PermissionEmployee
	}
	if len(input.LocationIDs) > 0 {
		if err := c.DB.Find(&user.Locations, input.LocationIDs).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load locations"})
		}
		if len(user.Locations) != len(input.LocationIDs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown location in location_ids"})
		}
	}

	if err := c.DB.Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

// Login checks the credentials and sets the session cookie
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var input LoginInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	var user Models.User
	if err := c.DB.Preload("Locations").Where("email = ?", input.Email).First(&user).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect email or password"})
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(input.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect email or password"})
	}
	if !user.IsActive {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account disabled"})
	}

	token, expires, err := middleware.IssueToken(user, c.now())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not log in"})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"message": "success", "user": user})
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  c.now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"message": "success"})
}

// User returns the logged in account
func (c *AuthController) User(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not Logged In."})
	}
	return ctx.JSON(user)
}
