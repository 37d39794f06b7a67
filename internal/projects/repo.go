package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("project not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Project struct {
	PublicID  string    `json:"public_id"`
	Name      string    `json:"name"`
	Client    string    `json:"client,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Repo) Create(ctx context.Context, name, client string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}

	for i := 0; i < 5; i++ {
		publicID, err := NewPublicID("hydro")
		if err != nil {
			return nil, err
		}

		const q = `
insert into projects (public_id, name, client)
values ($1, $2, $3)
returning public_id, name, client, created_at, updated_at;
`
		var p Project
		err = r.db.QueryRow(ctx, q, publicID, name, client).
			Scan(&p.PublicID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt)

		if err == nil {
			return &p, nil
		}

		// unique violation on public_id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

func (r *Repo) List(ctx context.Context) ([]Project, error) {
	const q = `
select public_id, name, client, created_at, updated_at
from projects
where deleted_at is null
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.PublicID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Project, error) {
	const q = `
select public_id, name, client, created_at, updated_at
from projects
where public_id = $1 and deleted_at is null;
`
	var p Project
	err := r.db.QueryRow(ctx, q, publicID).
		Scan(&p.PublicID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Rename(ctx context.Context, publicID, newName string) (*Project, error) {
	const q = `
update projects
set name = $2, updated_at = now()
where public_id = $1 and deleted_at is null
returning public_id, name, client, created_at, updated_at;
`
	var p Project
	err := r.db.QueryRow(ctx, q, publicID, newName).
		Scan(&p.PublicID, &p.Name, &p.Client, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	tag, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
