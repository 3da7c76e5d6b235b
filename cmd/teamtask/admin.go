package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/teamtask/internal/database"
	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/middleware"
	"github.com/mtlprog/teamtask/internal/repository"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withDatabase(c, func(db *database.DB) error {
						return database.RunMigrations(c.Context, db.Pool())
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: func(c *cli.Context) error {
					return withDatabase(c, func(db *database.DB) error {
						return database.RollbackMigration(c.Context, db.Pool())
					})
				},
			},
			{
				Name:  "status",
				Usage: "Print the state of every migration",
				Action: func(c *cli.Context) error {
					return withDatabase(c, func(db *database.DB) error {
						return database.MigrationStatus(c.Context, db.Pool())
					})
				},
			},
		},
		Action: func(c *cli.Context) error {
			return withDatabase(c, func(db *database.DB) error {
				return database.RunMigrations(c.Context, db.Pool())
			})
		},
	}
}

func bootstrapCommand() *cli.Command {
	return &cli.Command{
		Name:  "bootstrap",
		Usage: "Create a project and its first Lead, printing the Lead's API token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Project name", Required: true},
			&cli.StringFlag{Name: "login", Usage: "Login of the Lead", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withStore(c, func(st *repository.Store) error {
				project, err := st.CreateProject(c.Context, c.String("project"))
				if err != nil {
					return err
				}

				user, token, err := createUser(c, st, c.String("login"))
				if err != nil {
					return err
				}

				if err := st.AddMember(c.Context, project.ID, user.ID, domain.ProjectRoleLead); err != nil {
					return err
				}

				slog.Info("project bootstrapped", "project_id", project.ID, "user_id", user.ID)
				fmt.Fprintf(c.App.Writer, "project_id: %s\nuser_id: %s\ntoken: %s\n", project.ID, user.ID, token)
				return nil
			})
		},
	}
}

func addMemberCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-member",
		Usage: "Grant a user a role in a project; unknown logins are created and get a token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project-id", Usage: "Project ID", Required: true},
			&cli.StringFlag{Name: "login", Usage: "User login", Required: true},
			&cli.StringFlag{Name: "role", Usage: "Lead, Member or Contributor", Value: string(domain.ProjectRoleMember)},
		},
		Action: func(c *cli.Context) error {
			role := domain.ProjectRole(c.String("role"))
			if !role.IsValid() {
				return fmt.Errorf("invalid role %q: must be Lead, Member or Contributor", role)
			}

			return withStore(c, func(st *repository.Store) error {
				login := c.String("login")
				user, err := st.GetUserByLogin(c.Context, login)
				var token string
				switch {
				case errors.Is(err, domain.ErrUserNotFound):
					user, token, err = createUser(c, st, login)
					if err != nil {
						return err
					}
				case err != nil:
					return err
				}

				if err := st.AddMember(c.Context, c.String("project-id"), user.ID, role); err != nil {
					return err
				}

				slog.Info("project member added", "project_id", c.String("project-id"), "user_id", user.ID, "role", role)
				fmt.Fprintf(c.App.Writer, "user_id: %s\n", user.ID)
				if token != "" {
					fmt.Fprintf(c.App.Writer, "token: %s\n", token)
				}
				return nil
			})
		},
	}
}

func createUser(c *cli.Context, st *repository.Store, login string) (*domain.User, string, error) {
	token, err := middleware.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	user, err := st.CreateUser(c.Context, login, middleware.TokenDigest(token))
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func withDatabase(c *cli.Context, fn func(db *database.DB) error) error {
	databaseURL, err := requireDatabaseURL(c)
	if err != nil {
		return err
	}

	db, err := database.New(c.Context, databaseURL, int32(c.Int("db-max-conns")))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func withStore(c *cli.Context, fn func(st *repository.Store) error) error {
	return withDatabase(c, func(db *database.DB) error {
		if err := database.RunMigrations(c.Context, db.Pool()); err != nil {
			return err
		}
		return fn(repository.NewStore(db.Pool()))
	})
}
