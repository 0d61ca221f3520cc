package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type streamRepository struct {
	exec core.DBExecutor
}

var _ school.StreamRepository = (*streamRepository)(nil) // interface compliance check

func NewStreamRepository(exec core.DBExecutor) *streamRepository {
	return &streamRepository{exec: exec}
}

type streamRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo streamRepository) GetOrCreateStream(ctx context.Context, name school.StreamName, exec ...core.DBExecutor) (school.Stream, error) {
	ex := getExec(repo.exec, exec)

	get := func() (school.Stream, error) {
		var row streamRow
		err := ex.GetContext(ctx, &row, `SELECT id, name, created_at FROM stream WHERE name = $1`, string(name))
		if err != nil {
			return school.Stream{}, err
		}
		return school.Stream{ID: row.ID, Name: school.StreamName(row.Name), CreatedAt: row.CreatedAt}, nil
	}

	st, err := get()
	if err == nil {
		return st, nil
	}
	if err != sql.ErrNoRows {
		return school.Stream{}, errors.Wrap(err, "getting stream")
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO stream (id, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
		uuid.New().String(), string(name), time.Now().UTC())
	if err != nil {
		return school.Stream{}, errors.Wrap(err, "inserting stream")
	}
	st, err = get()
	if err != nil {
		return school.Stream{}, errors.Wrap(err, "getting created stream")
	}
	return st, nil
}
