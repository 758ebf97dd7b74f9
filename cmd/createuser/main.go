// cmd/createuser/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/domain"
	"fintrack/internal/repository/postgres"
	"fintrack/internal/service"
	"fintrack/internal/util"
	"fintrack/pkg/db"
)

// registrar is the part of service.AuthService this command needs.
type registrar interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
}

// connect is replaced in tests.
var connect = func(ctx context.Context, cfg *config.AppConfig) (registrar, io.Closer, error) {
	util.InitLogger(cfg.LogLevel)
	logger := util.GetLogger()

	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, database.DB); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}

	users := postgres.NewUserRepository()
	svc := service.NewAuthService(
		database,
		users,
		auth.NewPasswordVerifier(database, users, logger),
		auth.NewMemorySessionStore(time.Minute, logger),
		logger,
	)
	return svc, database, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: createuser -user <username> [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, closer, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closer.Close()

	user, err := svc.Signup(ctx, *username, password)
	switch {
	case util.IsError(err, util.ErrConflict):
		return fmt.Errorf("user %s already exists", *username)
	case err != nil:
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
