package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Dashspect/Config"
	"Dashspect/CronJobs"
	"Dashspect/FiberConfig"
	"Dashspect/Models"
	"Dashspect/Notifications"
	"Dashspect/Slack"
	"Dashspect/TaskEngine"
	"Dashspect/Whatsapp"
	"Dashspect/email"
	"Dashspect/middleware"
)

func main() {
	setupLogging()

	cfg, err := Config.Load()
	if err != nil {
		log.Fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	middleware.SecretKey = cfg.JWTSecret
	Whatsapp.Configure(cfg.WhatsappServiceURL)

	if err := Models.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
		log.Fatal(err)
	}
	if cfg.SeedFile != "" {
		if err := Models.SeedFromFile(Models.DB, cfg.SeedFile); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := TaskEngine.NewPipeline(cfg.GraceWindow())

	var pusher Notifications.Pusher
	if cfg.FirebaseCredentials != "" {
		firebasePusher, err := Notifications.NewFirebasePusher(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("Push notifications disabled: %v", err)
		} else {
			pusher = firebasePusher
		}
	}
	dispatcher := Notifications.NewDispatcher(Models.DB, Whatsapp.Service, pusher)

	var digests []CronJobs.DigestSender
	if cfg.SlackEnabled() {
		digests = append(digests, Slack.NewDigest(cfg.SlackBotToken, cfg.SlackChannelID))
	}
	if cfg.SMTPEnabled() {
		mailer := email.NewDigestMailer(email.Config{
			SMTPServer:   cfg.SMTP.Server,
			SMTPPort:     cfg.SMTP.Port,
			Username:     cfg.SMTP.Username,
			Password:     cfg.SMTP.Password,
			FromEmail:    cfg.SMTP.FromEmail,
			FromName:     cfg.SMTP.FromName,
			TLSEnabled:   cfg.SMTP.TLSEnabled,
			SkipTLSCheck: cfg.SMTP.SkipTLSCheck,
		}, cfg.SMTP.DigestTo, func() map[uint]string {
			names, err := Models.EmployeeNames(Models.DB)
			if err != nil {
				log.Printf("Error loading employee names: %v", err)
			}
			return names
		})
		digests = append(digests, mailer)
	}

	scheduler := CronJobs.NewScheduler(Models.DB, pipeline, loc, dispatcher, digests...)
	if err := scheduler.Start(cfg.OverdueSweepSchedule, cfg.DigestSchedule); err != nil {
		log.Fatal(err)
	}

	if cfg.SlackEnabled() && cfg.SlackAppToken != "" {
		commands := Slack.NewCommands(func(ctx context.Context) (TaskEngine.Result, time.Time, error) {
			now := time.Now().In(loc)
			y, m, d := now.Date()
			today := time.Date(y, m, d, 0, 0, 0, 0, loc)
			result, err := Models.Visible(Models.DB, pipeline, TaskEngine.SingleDay(today), now, TaskEngine.Identity{IsAdmin: true}, TaskEngine.GroupByLocation)
			return result, today, err
		})
		go func() {
			if err := Slack.Listen(ctx, cfg.SlackBotToken, cfg.SlackAppToken, cfg.SlackChannelID, commands); err != nil && ctx.Err() == nil {
				log.Printf("Slack listener stopped: %v", err)
			}
		}()
	}

	if err := FiberConfig.FiberConfig(ctx, FiberConfig.Server{
		Port:         cfg.Port,
		Location:     loc,
		Pipeline:     pipeline,
		Jobs:         scheduler,
		LogFormat:    cfg.LogFormat,
		LogFile:      cfg.LogFile,
		ErrorLogFile: "logs/errors.log",
		Templates:    "./Templates",
	}); err != nil {
		log.Fatal(err)
	}
	scheduler.Stop()
	log.Println("Shut down")
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile("logs/application.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.Ldate | log.Ltime)
}
