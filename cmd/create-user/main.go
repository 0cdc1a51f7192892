package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/database"
	"github.com/stemsi/quizgen-backend/internal/logger"
	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stemsi/quizgen-backend/internal/repository"
	"github.com/stemsi/quizgen-backend/internal/service"
	"github.com/stemsi/quizgen-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Sign-up never touches the session store.
	authService := service.NewAuthService(cfg, repository.NewUserRepository(db), nil, log)

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	req := &model.SignUpRequest{Name: name, Email: email, Password: string(bytePassword)}
	if fields := validator.Validate(req); fields != nil {
		for field, msg := range fields {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		os.Exit(1)
	}

	user, err := authService.SignUp(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			fmt.Println("Error: email is already registered")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("User created: %s <%s> (id %s)\n", user.Name, user.Email, user.ID)
}
