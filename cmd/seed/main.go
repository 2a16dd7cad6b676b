// Package main seeds a bookstore database with default categories and,
// optionally, a demo account.
//
// Usage:
//
//	DATA_PATH=~/Bookstore/data go run ./cmd/seed
//	go run ./cmd/seed --demo-email demo@example.com --demo-password 'Demo-pass1!'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/service"
	"github.com/listenupapp/bookstore-server/internal/store/sqlite"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

var defaultCategories = []struct {
	name        string
	description string
}{
	{"Fiction", "Novels, short stories and other imaginative writing"},
	{"Non-Fiction", "Biographies, essays and true accounts"},
	{"Science", "Physics, biology, chemistry and the natural world"},
	{"History", "Events, people and civilizations of the past"},
	{"Technology", "Computing, engineering and applied science"},
}

func main() {
	dataPath := flag.String("data-path", "", "Data directory (defaults to DATA_PATH)")
	demoName := flag.String("demo-name", "Demo User", "Name of the demo account")
	demoEmail := flag.String("demo-email", "", "Register a demo account with this email and print its token")
	demoPassword := flag.String("demo-password", "", "Password of the demo account")
	flag.Parse()

	var args []string
	if *dataPath != "" {
		args = []string{"-data-path", *dataPath}
	}
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	v := validation.New()
	categories := service.NewCategoryService(st, v, log.Logger)

	existing, err := st.ListCategories(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to list categories")
	}
	if len(existing) > 0 {
		log.Info("Categories already present, skipping defaults", "count", len(existing))
	} else {
		for _, c := range defaultCategories {
			description := c.description
			if _, err := categories.Create(ctx, service.CreateCategoryRequest{Name: c.name, Description: &description}); err != nil {
				log.WithError(err).Fatal("Failed to create category")
			}
		}
		log.Info("Default categories created", "count", len(defaultCategories))
	}

	if *demoEmail == "" {
		return
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load auth key")
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("Failed to create token service")
	}

	result, err := service.NewAuthService(st, tokens, v, log.Logger).Register(ctx, service.RegisterRequest{
		Name:                 *demoName,
		Email:                *demoEmail,
		Password:             *demoPassword,
		PasswordConfirmation: *demoPassword,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to register demo user")
	}

	fmt.Fprintf(os.Stdout, "Demo user %s (id %d)\nToken: %s\n", result.User.Email, result.User.ID, result.Token)
}
