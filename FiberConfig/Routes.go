package FiberConfig

import (
	"context"
	"fmt"
	"log"
	"time"

	"Dashspect/Controllers"
	"Dashspect/Models"
	"Dashspect/TaskEngine"
	"Dashspect/Whatsapp"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"
)

// Server is what the routes need besides the database
type Server struct {
	Port      string
	Location  *time.Location
	Pipeline  *TaskEngine.Pipeline
	Jobs      Controllers.JobRunner
	LogFormat string
	LogFile   string
	// ErrorLogFile collects failed requests; empty disables it
	ErrorLogFile string
	Templates    string
}

func SetupRoutes(app *fiber.App, db *gorm.DB, srv Server) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db)
	userController := Controllers.NewUserController(db)
	locationController := Controllers.NewLocationController(db)
	taskController := Controllers.NewTaskController(db, srv.Location)
	shiftController := Controllers.NewShiftController(db)
	occurrenceController := Controllers.NewOccurrenceController(db, srv.Pipeline, srv.Location)
	logsController := Controllers.NewLogsController(srv.LogFile)

	employee := middleware.Verify(Models.PermissionEmployee)
	manager := middleware.Verify(Models.PermissionManager)
	admin := middleware.Verify(Models.PermissionAdmin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/login", authController.Login)
	api.Post("/logout", authController.Logout)
	api.Post("/register", admin, authController.Register)
	api.Get("/user", employee, authController.User)

	users := api.Group("/users", manager)
	users.Get("/", userController.GetUsers)
	users.Put("/:id", admin, userController.UpdateUser)

	locations := api.Group("/locations", employee)
	locations.Get("/", locationController.GetLocations)
	locations.Get("/:id", locationController.GetLocation)
	locations.Post("/", manager, locationController.CreateLocation)
	locations.Put("/:id", manager, locationController.UpdateLocation)
	locations.Delete("/:id", manager, locationController.DeleteLocation)

	tasks := api.Group("/tasks", employee)
	tasks.Get("/", taskController.GetTasks)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Post("/", manager, taskController.CreateTask)
	tasks.Put("/:id", manager, taskController.UpdateTask)
	tasks.Post("/:id/archive", manager, taskController.ArchiveTask)
	tasks.Delete("/:id", manager, taskController.DeleteTask)

	shifts := api.Group("/shifts", employee)
	shifts.Get("/", shiftController.GetShifts)
	shifts.Post("/", manager, shiftController.CreateShift)
	shifts.Put("/:id", manager, shiftController.UpdateShift)
	shifts.Delete("/:id", manager, shiftController.DeleteShift)

	// Occurrences are virtual; :key is "<task id>:<YYYY-MM-DD>"
	occurrences := api.Group("/occurrences", employee)
	occurrences.Get("/", occurrenceController.GetOccurrences)
	occurrences.Get("/:key/lock", occurrenceController.GetLock)
	occurrences.Post("/:key/complete", occurrenceController.Complete)
	occurrences.Delete("/:key/complete", occurrenceController.Uncomplete)

	api.Get("/reports/occurrences.xlsx", manager, occurrenceController.ExportOccurrences)
	app.Get("/board", employee, occurrenceController.Board)

	// Notification channels
	api.Post("/fcm/token", employee, Models.UpdateToken)
	whatsapp := api.Group("/whatsapp", admin)
	whatsapp.Get("/status", Whatsapp.CheckWPLogin)
	whatsapp.Get("/qr", Whatsapp.GetQRCode)
	whatsapp.Post("/test", middleware.CheckWPLoginMiddleware(), Whatsapp.SendTestMessage)

	if srv.Jobs != nil {
		jobController := Controllers.NewJobController(srv.Jobs)
		api.Post("/jobs/:name/run", admin, jobController.RunJob)
	}

	// Logs API routes
	api.Get("/logs", admin, logsController.GetLogs)
	api.Get("/logs/stats", admin, logsController.GetLogStats)
}

// NewApp builds the fiber app with the template engine and middleware
func NewApp(db *gorm.DB, srv Server) *fiber.App {
	templates := srv.Templates
	if templates == "" {
		templates = "./Templates"
	}
	// Html Template engine
	engine := html.New(templates, ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})

	app.Use(middleware.RequestLogger(srv.LogFormat, srv.LogFile))
	if srv.ErrorLogFile != "" {
		app.Use(middleware.ErrorLogger(srv.ErrorLogFile))
	}
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, db, srv)
	return app
}

// FiberConfig serves until ctx is cancelled, then lets in-flight requests
// finish before returning
func FiberConfig(ctx context.Context, srv Server) error {
	fmt.Println("Server Up...")
	app := NewApp(Models.DB, srv)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + srv.Port); err != nil {
		return err
	}
	<-stopped
	return nil
}
