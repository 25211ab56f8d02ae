package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careslot/careslot/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanDay(row pgx.Row) (*Day, error) {
	var d Day
	var day time.Time
	err := row.Scan(&d.ID, &d.DoctorID, &day, &d.TimeSlots, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Date = day.Format(DateLayout)
	if d.TimeSlots == nil {
		d.TimeSlots = []string{}
	}
	return &d, nil
}

const dayCols = `id, doctor_id, day, time_slots, created_at, updated_at`

func (r *repoPG) Merge(ctx context.Context, doctorID uuid.UUID, date string, slots []string) (*Day, error) {
	return scanDay(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO availability (id, doctor_id, day, time_slots)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, day) DO UPDATE
		SET time_slots = (
			SELECT array_agg(DISTINCT t ORDER BY t)
			FROM unnest(availability.time_slots || EXCLUDED.time_slots) AS t
		), updated_at = NOW()
		RETURNING `+dayCols,
		uuid.New(), doctorID, date, slots))
}

func (r *repoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM availability WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Day, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM availability WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dayCols+` FROM availability WHERE doctor_id = $1 ORDER BY day ASC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	var slots []string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT time_slots FROM availability WHERE doctor_id = $1 AND day = $2`,
		doctorID, date).Scan(&slots)
	if err == pgx.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// ReserveSlot is a single conditional UPDATE: the membership guard and
// the removal happen in one statement, so two concurrent bookings of
// the same slot cannot both succeed.
func (r *repoPG) ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability
		SET time_slots = array_remove(time_slots, $3), updated_at = NOW()
		WHERE doctor_id = $1 AND day = $2 AND $3 = ANY(time_slots)`,
		doctorID, date, timeSlot)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReleaseSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability (id, doctor_id, day, time_slots)
		VALUES ($1, $2, $3, ARRAY[$4])
		ON CONFLICT (doctor_id, day) DO UPDATE
		SET time_slots = (
			SELECT array_agg(DISTINCT t ORDER BY t)
			FROM unnest(availability.time_slots || EXCLUDED.time_slots) AS t
		), updated_at = NOW()`,
		uuid.New(), doctorID, date, timeSlot)
	return err
}
