package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtlprog/teamtask/internal/domain"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a broken reference.
const foreignKeyViolation = "23503"

// GetProject retrieves a project by ID.
func (t *pgTx) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	query, args, err := psql.
		Select("id", "name", "created_at").
		From("projects").
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetProject query for project %s: %w", projectID, err)
	}

	var project domain.Project
	err = t.q.QueryRow(ctx, query, args...).Scan(&project.ID, &project.Name, &project.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}
	return &project, nil
}

// GetMembership retrieves a user's role in a project.
func (t *pgTx) GetMembership(ctx context.Context, projectID, userID string) (*domain.ProjectMembership, error) {
	query, args, err := psql.
		Select("project_id", "user_id", "role", "assigned_at").
		From("project_members").
		Where(sq.Eq{"project_id": projectID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetMembership query: %w", err)
	}

	var m domain.ProjectMembership
	err = t.q.QueryRow(ctx, query, args...).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("query membership: %w", err)
	}
	return &m, nil
}

// CreateProject inserts a project. Projects are managed by administrators.
func (s *Store) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	query, args, err := psql.
		Insert("projects").
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build CreateProject query: %w", err)
	}

	var project domain.Project
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&project.ID, &project.Name, &project.CreatedAt); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// AddMember grants a user a role in a project, replacing any previous role.
func (s *Store) AddMember(ctx context.Context, projectID, userID string, role domain.ProjectRole) error {
	query, args, err := psql.
		Insert("project_members").
		Columns("project_id", "user_id", "role").
		Values(projectID, userID, role).
		Suffix("ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role").
		ToSql()
	if err != nil {
		return fmt.Errorf("build AddMember query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("%w: unknown project or user", domain.ErrNotFound)
		}
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}
