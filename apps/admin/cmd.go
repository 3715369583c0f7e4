package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	exportsvc "github.com/trezcool/perftracker/services/export"
	"github.com/trezcool/perftracker/storage"
	"github.com/trezcool/perftracker/storage/database"
)

var (
	errHelp       = errors.New("help provided")
	errNoSQLStore = errors.New("migrations need a SQL database engine")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	in     io.Reader
	out    io.Writer

	svc     *roster.Service
	db      *sqlx.DB
	closers []func() error
}

func (cli *commandLine) close() {
	for _, fn := range cli.closers {
		if err := fn(); err != nil {
			cli.logger.Error("closing database", err)
		}
	}
	cli.closers = nil
}

// openService sets up the roster service, unless already set.
func (cli *commandLine) openService(ctx context.Context) error {
	if cli.svc != nil {
		return nil
	}
	repo, closeFn, err := storage.OpenRoster(ctx, cli.conf.Database)
	if err != nil {
		return err
	}
	cli.closers = append(cli.closers, closeFn)
	cli.svc = roster.NewService(repo)
	return cli.svc.Init(ctx)
}

// openDB connects to the SQL database without migrating it, unless already set.
func (cli *commandLine) openDB(ctx context.Context) error {
	if cli.db != nil {
		return nil
	}
	if cli.conf.Database.Engine == database.EngineMemory {
		return errNoSQLStore
	}
	if err := database.CreateIfNotExist(ctx, cli.conf.Database); err != nil {
		return err
	}
	db, err := database.Open(cli.conf.Database)
	if err != nil {
		return err
	}
	cli.closers = append(cli.closers, db.Close)
	if err = database.Ping(ctx, db); err != nil {
		return err
	}
	cli.db = db
	return nil
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Student Performance Tracker administration",
		Long:          "Without a command, starts the interactive menu.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.openService(cmd.Context()); err != nil {
				return err
			}
			return cli.menu(cmd.Context())
		},
	}
	root.AddCommand(cli.migrateCmd(), cli.exportCmd())
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run a goose migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			if err := cli.openDB(cmd.Context()); err != nil {
				return err
			}
			return cli.migrate(cmd.Context(), args)
		},
	}
}

func (cli *commandLine) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the roster to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if err := cli.openService(cmd.Context()); err != nil {
				return err
			}
			if err := exportsvc.SaveRoster(cmd.Context(), cli.svc, output); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "%s Roster exported to %s\n", cli.styles().ok, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "roster.xlsx", "path of the workbook to write")
	return cmd
}

// run executes the command line; args include the program name.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	if cli.in == nil {
		cli.in = os.Stdin
	}
	if cli.out == nil {
		cli.out = os.Stdout
	}
	defer cli.close()

	root := cli.rootCmd()
	root.SetArgs(args[1:])
	root.SetIn(cli.in)
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	return root.ExecuteContext(ctx)
}
