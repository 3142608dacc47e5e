package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/outbox"
)

// Querier is the subset of pgxpool.Pool the repository needs. Tests satisfy
// it with a pgxmock pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository is the self-hosted persistence backend. Creates also
// enqueue an outbox event in the same transaction, so the Kafka publisher
// never observes an appointment that was rolled back.
type PostgresRepository struct {
	db     Querier
	outbox *outbox.Repository
	loc    *time.Location
}

func NewPostgresRepository(db Querier, ob *outbox.Repository, loc *time.Location) *PostgresRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresRepository{db: db, outbox: ob, loc: loc}
}

const appointmentColumns = `
	id, client_name, COALESCE(organization, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(need_type, ''), COALESCE(topic, ''), preferred_date_time,
	COALESCE(consultant, ''), COALESCE(notes, ''), COALESCE(status, ''), created_at`

func (r *PostgresRepository) FetchAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.ClientName,
			&appt.Organization,
			&appt.Email,
			&appt.Phone,
			&appt.NeedType,
			&appt.Topic,
			&appt.PreferredDateTime,
			&appt.Consultant,
			&appt.Notes,
			&appt.Status,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *PostgresRepository) CreateAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.Consultant == "" {
		appt.Consultant = DefaultConsultant
	}
	appt.PreferredDateTime = NormalizePreferred(appt.PreferredDateTime, r.loc)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(client_name, organization, email, phone, need_type, topic, preferred_date_time, consultant, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, appt.ClientName, appt.Organization, appt.Email, appt.Phone, appt.NeedType, appt.Topic,
		appt.PreferredDateTime, appt.Consultant, appt.Notes, appt.Status).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	if r.outbox != nil {
		payload, err := json.Marshal(outbox.AppointmentSaved{
			AppointmentID: appt.ID,
			Action:        "created",
			OccurredAt:    appt.CreatedAt.UTC(),
		})
		if err != nil {
			return model.Appointment{}, err
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateID: appt.ID,
			EventType:   outbox.EventTypeAppointmentSaved,
			Payload:     payload,
		}); err != nil {
			return model.Appointment{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET notes = $2 WHERE id = $1
	`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
