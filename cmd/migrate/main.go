package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"folio/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app := newApp(logger)
	if err := app.Run(os.Args); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
}

func newApp(logger *zap.Logger) *cli.App {
	withMigrator := func(fn func(*cli.Context, *db.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			m, err := db.NewMigrator(c.String("database-url"), logger)
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(c, m)
		}
	}

	return &cli.App{
		Name:  "migrate",
		Usage: "apply the folio postgres schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "postgres connection string",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply every pending migration",
				Action: withMigrator(func(_ *cli.Context, m *db.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					return printVersion(logger, m)
				}),
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: withMigrator(func(c *cli.Context, m *db.Migrator) error {
					if err := m.Down(c.Int("steps")); err != nil {
						return err
					}
					return printVersion(logger, m)
				}),
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withMigrator(func(_ *cli.Context, m *db.Migrator) error {
					return printVersion(logger, m)
				}),
			},
			{
				Name:      "force",
				Usage:     "set the schema version without running migrations",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *db.Migrator) error {
					version, err := parseVersion(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					if err := m.Force(version); err != nil {
						return err
					}
					return printVersion(logger, m)
				}),
			},
		},
	}
}

func parseVersion(arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("force requires a version argument")
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < -1 {
		return 0, fmt.Errorf("invalid version %q", arg)
	}
	return v, nil
}

func printVersion(logger *zap.Logger, m *db.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
