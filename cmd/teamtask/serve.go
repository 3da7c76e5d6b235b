package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/teamtask/internal/blob"
	"github.com/mtlprog/teamtask/internal/cache"
	"github.com/mtlprog/teamtask/internal/config"
	"github.com/mtlprog/teamtask/internal/database"
	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/handler"
	"github.com/mtlprog/teamtask/internal/middleware"
	"github.com/mtlprog/teamtask/internal/repository"
	"github.com/mtlprog/teamtask/internal/service"
	"github.com/mtlprog/teamtask/internal/store"
	"github.com/mtlprog/teamtask/internal/store/memory"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:    "blob-dir",
				Value:   config.DefaultBlobDir,
				Usage:   "Directory for attachment files",
				EnvVars: []string{"BLOB_DIR"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Value:   config.DefaultRedisURL,
				Usage:   "Redis URL for the unread notification count cache (optional)",
				EnvVars: []string{"REDIS_URL"},
			},
			&cli.DurationFlag{
				Name:    "unread-cache-ttl",
				Value:   config.DefaultUnreadCacheTTL,
				Usage:   "Lifetime of cached unread counts",
				EnvVars: []string{"UNREAD_CACHE_TTL"},
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Run on a seeded in-memory store instead of PostgreSQL",
			},
		},
		Action: runServe,
	}
}

// backend is the persistence wiring of one server run.
type backend struct {
	tx     store.Store
	notes  store.NotificationStore
	users  middleware.UserFinder
	health func(ctx context.Context) error
	close  func()
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	var (
		be  *backend
		err error
	)
	if c.Bool("in-memory") {
		be = memoryBackend()
	} else {
		be, err = postgresBackend(c)
		if err != nil {
			return err
		}
	}
	defer be.close()

	blobDir := c.String("blob-dir")
	if blobDir == "" {
		blobDir = config.DefaultBlobDir
	}
	blobs, err := blob.NewFileStore(blobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob storage: %w", err)
	}

	taskOpts := []service.Option{}
	var unread cache.UnreadCounts
	if redisURL := c.String("redis-url"); redisURL != "" {
		client, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		unread = cache.NewRedisUnreadCounts(client, c.Duration("unread-cache-ttl"))
		taskOpts = append(taskOpts, service.WithUnreadCache(unread))
		slog.Info("unread count cache enabled", "ttl", c.Duration("unread-cache-ttl"))
	}

	h := handler.New(handler.Deps{
		Tasks:         service.NewTaskService(be.tx, blobs, taskOpts...),
		Notifications: service.NewNotificationService(be.notes, unread),
		Users:         be.users,
		Health:        be.health,
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           h.Routes(),
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func postgresBackend(c *cli.Context) (*backend, error) {
	databaseURL, err := requireDatabaseURL(c)
	if err != nil {
		return nil, err
	}

	db, err := database.New(c.Context, databaseURL, int32(c.Int("db-max-conns")))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(c.Context, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	st := repository.NewStore(db.Pool())
	return &backend{
		tx:     st,
		notes:  st,
		users:  st,
		health: db.Pool().Ping,
		close:  db.Close,
	}, nil
}

// memoryBackend seeds one project with a Lead, a Member and a Contributor.
func memoryBackend() *backend {
	st := memory.New()

	projectID := st.AddProject(config.DemoProjectName)
	seed := []struct {
		login string
		token string
		role  domain.ProjectRole
	}{
		{"lead", config.DemoLeadToken, domain.ProjectRoleLead},
		{"member", config.DemoMemberToken, domain.ProjectRoleMember},
		{"contributor", config.DemoContributorToken, domain.ProjectRoleContributor},
	}
	for _, u := range seed {
		userID := st.AddUser(u.login, middleware.TokenDigest(u.token))
		st.AddMembership(projectID, userID, u.role)
		slog.Info("demo user seeded", "login", u.login, "role", u.role, "user_id", userID, "token", u.token)
	}
	slog.Warn("running on the in-memory store, data is lost on exit", "project_id", projectID)

	return &backend{
		tx:    st,
		notes: st,
		users: st,
		close: func() {},
	}
}
