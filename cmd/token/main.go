// Command token mints an access token for an existing user. It is meant for
// local development and operator scripts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/skillquest/skillquest/internal/auth"
	"github.com/skillquest/skillquest/internal/config"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	username := flag.String("user", "", "username to issue the token for")
	moderator := flag.Bool("moderator", false, "grant the moderator role")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, "console", "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db).GetByUsername(context.Background(), *username)
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("Failed to find user")
	}

	token, err := auth.NewManager(&cfg.Auth).IssueToken(user.ID, user.Username, *moderator)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	fmt.Println(token)
}
