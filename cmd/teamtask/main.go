// @title			teamtask API
// @version		1.0
// @description	Task lifecycle and collaboration engine for project teams.
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/teamtask/internal/config"
	"github.com/mtlprog/teamtask/internal/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "teamtask",
		Usage: "Task lifecycle and collaboration engine for project teams",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.IntFlag{
				Name:    "db-max-conns",
				Value:   config.DefaultMaxConns,
				Usage:   "Maximum PostgreSQL pool connections",
				EnvVars: []string{"DB_MAX_CONNS"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logger.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			logger.Setup(level)
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			bootstrapCommand(),
			addMemberCommand(),
		},
		Action: runServe,
	}
}

func requireDatabaseURL(c *cli.Context) (string, error) {
	databaseURL := c.String("database-url")
	if databaseURL == "" {
		return "", fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return databaseURL, nil
}
