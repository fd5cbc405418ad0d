// seed writes the role catalogue (owner, admin, member) and, with --dev, a local sample account.
// Existing roles are kept unless --overwrite or --reset is given.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teamhub/backend/internal/bootstrap"
	"teamhub/backend/internal/config"
	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/logger"
	"teamhub/backend/internal/provisioning"
	"teamhub/backend/internal/role"
	"teamhub/backend/internal/security"
)

const (
	devUserName  = "Dev User"
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

type options struct {
	overwrite bool
	reset     bool
	file      string
	dev       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Seed the role catalogue",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.overwrite && opts.reset {
				return errors.New("--overwrite and --reset are mutually exclusive")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: "teamhub-seed"})
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			store, err := bootstrap.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(context.Background()) }()
			return seed(ctx, store, security.NewHasher(cfg.BcryptCost), opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.overwrite, "overwrite", false, "replace the permissions of roles that already exist")
	f.BoolVar(&opts.reset, "reset", false, "delete every role before seeding (role IDs change)")
	f.StringVar(&opts.file, "file", "", "YAML role catalogue to seed instead of the built-in one")
	f.BoolVar(&opts.dev, "dev", false, "also create the "+devUserEmail+" sample account")
	return cmd
}

func seed(ctx context.Context, store docstore.Store, hasher provisioning.PasswordHasher, opts options, out io.Writer) error {
	cat := role.DefaultCatalogue()
	if opts.file != "" {
		fh, err := os.Open(opts.file)
		if err != nil {
			return err
		}
		cat, err = role.LoadCatalogue(fh)
		_ = fh.Close()
		if err != nil {
			return err
		}
	}
	mode := role.SeedKeep
	switch {
	case opts.reset:
		mode = role.SeedReset
	case opts.overwrite:
		mode = role.SeedOverwrite
	}

	coord := provisioning.NewCoordinator(store)
	var res *role.SeedResult
	txMode, err := coord.Run(ctx, func(ctx context.Context, sess docstore.Session) error {
		var err error
		res, err = role.Seed(ctx, sess, cat, mode)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	logger.L().Info("roles seeded", zap.String("mode", string(txMode)), zap.Int64("removed", res.Removed))
	fmt.Fprintf(out, "roles: created=%v updated=%v kept=%v removed=%d\n", res.Created, res.Updated, res.Kept, res.Removed)

	if !opts.dev {
		return nil
	}
	_, err = provisioning.NewWorkflow(coord, hasher).Register(ctx, provisioning.RegisterInput{
		Name:     devUserName,
		Email:    devUserEmail,
		Password: devPassword,
	})
	switch {
	case errors.Is(err, provisioning.ErrEmailExists):
		fmt.Fprintf(out, "dev user %s already exists\n", devUserEmail)
	case err != nil:
		return fmt.Errorf("dev user: %w", err)
	default:
		fmt.Fprintf(out, "dev user %s created (password %s)\n", devUserEmail, devPassword)
	}
	return nil
}
