package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
)

const childColumns = `id, user_id, first_name, last_name, birth_date, gender, journey_progress, created_at, updated_at`

type childRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	FirstName       string    `db:"first_name"`
	LastName        string    `db:"last_name"`
	BirthDate       time.Time `db:"birth_date"`
	Gender          string    `db:"gender"`
	JourneyProgress float64   `db:"journey_progress"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func toChildRow(c child.Child) childRow {
	return childRow{
		ID:              c.ID,
		UserID:          c.UserID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		BirthDate:       c.BirthDate.UTC(),
		Gender:          c.Gender,
		JourneyProgress: c.JourneyProgress,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
}

func (r childRow) child() child.Child {
	bd := r.BirthDate
	return child.Child{
		ID:              r.ID,
		UserID:          r.UserID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		BirthDate:       time.Date(bd.Year(), bd.Month(), bd.Day(), 0, 0, 0, 0, time.UTC),
		Gender:          r.Gender,
		JourneyProgress: r.JourneyProgress,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type childRepository struct {
	db *sqlx.DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *sqlx.DB) *childRepository {
	return &childRepository{db: db}
}

func (repo *childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	row := toChildRow(c)
	q := `INSERT INTO child (user_id, first_name, last_name, birth_date, gender, journey_progress, created_at, updated_at)
		VALUES (:user_id, :first_name, :last_name, :birth_date, :gender, :journey_progress, :created_at, :updated_at)
		RETURNING ` + childColumns
	if err := namedGet(ctx, repo.db, &row, q, row); err != nil {
		return child.Child{}, errors.Wrap(err, "inserting child")
	}
	return row.child(), nil
}

func (repo *childRepository) GetChild(ctx context.Context, id string) (child.Child, error) {
	if !isUUID(id) {
		return child.Child{}, child.ErrNotFound
	}
	var row childRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+childColumns+` FROM child WHERE id = $1`, id); err != nil {
		return child.Child{}, trapNoRowsErr(err, child.ErrNotFound, "getting child")
	}
	return row.child(), nil
}

func (repo *childRepository) QueryChildren(ctx context.Context, filter child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	qb := psql.Select(childColumns).From("child").OrderBy(core.OrderByClause(ordering, "created_at DESC"))
	if !filter.All {
		qb = qb.Where(sq.Or{
			sq.Expr("user_id = ANY(?)", pq.Array(validIDs(filter.UserIDs))),
			sq.Expr("id = ANY(?)", pq.Array(validIDs(filter.IDs))),
		})
	}
	if filter.Search != "" {
		qb = qb.Where("concat_ws(' ', first_name, last_name) ILIKE ?", "%"+filter.Search+"%")
	}

	var rows []childRow
	if err := selectAll(ctx, repo.db, &rows, qb, "querying children"); err != nil {
		return nil, err
	}
	children := make([]child.Child, 0, len(rows))
	for _, r := range rows {
		children = append(children, r.child())
	}
	return children, nil
}

func (repo *childRepository) UpdateChild(ctx context.Context, c child.Child) (child.Child, error) {
	if !isUUID(c.ID) {
		return child.Child{}, child.ErrNotFound
	}
	row := toChildRow(c)
	q := `UPDATE child SET
			first_name = :first_name, last_name = :last_name, birth_date = :birth_date, gender = :gender,
			journey_progress = :journey_progress, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + childColumns
	if err := namedGet(ctx, repo.db, &row, q, row); err != nil {
		return child.Child{}, trapNoRowsErr(err, child.ErrNotFound, "updating child")
	}
	return row.child(), nil
}

func (repo *childRepository) DeleteChild(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, "child", id, child.ErrNotFound, "deleting child")
}
