package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/logger"
	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/middleware/auth"

	"github.com/spf13/cobra"
)

type superuserOptions struct {
	username string
	email    string
}

func newRootCmd() *cobra.Command {
	opts := &superuserOptions{}
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create or promote an admin superuser",
		Long: `createsuperuser gets or creates the user with the given username and
email, gives it the admin role and the superuser flag, and prints a fresh
confirmation code to exchange at POST /api/v1/auth/token/.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(*cobra.Command, []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return createSuperuser(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "username of the superuser")
	cmd.Flags().StringVar(&opts.email, "email", "", "email of the superuser")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (o *superuserOptions) validate() error {
	o.username = strings.TrimSpace(o.username)
	o.email = strings.TrimSpace(o.email)
	if o.username == "" || o.email == "" {
		return fmt.Errorf("username and email must not be blank")
	}
	if !dto.ValidUsername(o.username) || o.username == service.ReservedUsername {
		return fmt.Errorf("invalid username %q", o.username)
	}
	return nil
}

func createSuperuser(ctx context.Context, opts *superuserOptions, out io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	logger := logger.New(cfg)
	slog.SetDefault(logger)

	codes, err := auth.NewCodeGenerator(cfg.SecretKey, cfg.ConfirmationCodeTTL)
	if err != nil {
		return fmt.Errorf("could not create code generator: %w", err)
	}

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db, logger); err != nil {
		return fmt.Errorf("could not migrate database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	user, created, err := users.GetOrCreate(ctx, opts.email, opts.username)
	if err != nil {
		return fmt.Errorf("could not create user: %w", err)
	}

	user.Role = models.RoleAdmin
	user.IsSuperuser = true
	code := codes.Make(user)
	user.ConfirmationCode = &code
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("could not promote user: %w", err)
	}

	logger.Info("superuser_ready", "username", user.Username, "created", created)
	fmt.Fprintf(out, "Superuser %s is ready.\nConfirmation code: %s\n", user.Username, code)
	fmt.Fprintln(out, "Exchange it for a token at POST /api/v1/auth/token/.")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
