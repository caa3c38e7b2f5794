package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	signup "github.com/goliatone/go-signup"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Config is loaded once from the environment at startup. The signing
// secret and the mail credentials live only here.
type Config struct {
	Addr            string        `env:"LISTEN_ADDR" envDefault:":3000"`
	DSN             string        `env:"DATABASE_DSN" envDefault:"file:signup.db?_pragma=busy_timeout(5000)"`
	SigningKey      string        `env:"JWT_SECRET,required"`
	TokenExpiration int           `env:"TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"go-signup"`
	OTPTTL          time.Duration `env:"OTP_TTL" envDefault:"5m"`

	SMTPHost     string `env:"EMAIL_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUser     string `env:"EMAIL_USER"`
	SMTPPass     string `env:"EMAIL_PASS"`
	SMTPFromName string `env:"EMAIL_FROM_NAME" envDefault:"go-signup"`
	SMTPDisabled bool   `env:"EMAIL_DISABLED"`
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg Config) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	if _, err := db.NewCreateTable().
		Model((*signup.Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	repo := signup.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := signup.NewTokenService(
		[]byte(cfg.SigningKey),
		cfg.TokenExpiration,
		cfg.Issuer,
		nil,
		nil,
	)

	var notifier signup.Notifier
	if cfg.SMTPDisabled {
		log.Println("mail delivery disabled, verification codes will not be sent")
	} else {
		notifier = signup.NewSMTPNotifier(signup.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPUser,
			FromName: cfg.SMTPFromName,
		})
	}

	lifecycle := signup.NewLifecycle(repo.Accounts(), tokens).
		WithNotifier(notifier).
		WithOTPTTL(cfg.OTPTTL)

	app := fiber.New(fiber.Config{
		AppName:      "go-signup",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	signup.RegisterAuthRoutes(app,
		signup.WithLifecycle(lifecycle),
		signup.WithTokenService(tokens),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}
