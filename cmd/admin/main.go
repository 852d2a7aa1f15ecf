// admin is the operator CLI for the user directory: block, unblock, and show users by phone.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"phone-otp-auth/internal/config"
	"phone-otp-auth/internal/db"
	"phone-otp-auth/internal/phone"
	"phone-otp-auth/internal/user/domain"
	userrepo "phone-otp-auth/internal/user/repository"
)

// userStore is the part of the user repository the CLI uses.
type userStore interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	SetBlocked(ctx context.Context, phone string, blocked bool) error
}

// opener connects to the user directory; the returned func releases it.
type opener func(ctx context.Context) (userStore, func(), error)

func main() {
	if err := NewRootCmd(openPostgres).Execute(); err != nil {
		os.Exit(1)
	}
}

func openPostgres(ctx context.Context) (userStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL, 1)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return userrepo.NewPostgresRepository(pool), pool.Close, nil
}

// NewRootCmd creates the admin root command.
func NewRootCmd(open opener) *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operate on the OTP auth user directory",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&country, "country", "US", "ISO 3166-1 alpha-2 country of the phone number")

	cmd.AddCommand(newBlockCmd(open, &country, true))
	cmd.AddCommand(newBlockCmd(open, &country, false))
	cmd.AddCommand(newShowCmd(open, &country))
	return cmd
}

func newBlockCmd(open opener, country *string, blocked bool) *cobra.Command {
	use, short := "block <phone>", "Block a user; blocked users cannot request codes or log in"
	if !blocked {
		use, short = "unblock <phone>", "Clear the blocked flag of a user"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := phone.Normalize(args[0], *country)
			if err != nil {
				return oops.Code("INVALID_PHONE").With("phone", args[0]).Wrap(err)
			}
			users, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := users.SetBlocked(cmd.Context(), normalized, blocked); err != nil {
				return oops.With("operation", "set blocked").With("phone", normalized).Wrap(err)
			}
			cmd.Printf("%s blocked=%t\n", normalized, blocked)
			return nil
		},
	}
}

func newShowCmd(open opener, country *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <phone>",
		Short: "Show a user's verification state and blocked flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := phone.Normalize(args[0], *country)
			if err != nil {
				return oops.Code("INVALID_PHONE").With("phone", args[0]).Wrap(err)
			}
			users, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			u, err := users.GetByPhone(cmd.Context(), normalized)
			if err != nil {
				return oops.With("operation", "get user").With("phone", normalized).Wrap(err)
			}
			if u == nil {
				return fmt.Errorf("no user with phone %s", normalized)
			}
			cmd.Printf("id=%s phone=%s country=%s state=%s blocked=%t created_at=%s\n",
				u.ID, u.Phone, u.CountryCode, u.State, u.Blocked, u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
}
