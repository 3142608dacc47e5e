package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/outbox"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	repo := NewPostgresRepository(mock, outbox.NewRepository(mock), time.UTC)
	return mock, repo
}

func TestFetchAppointments(t *testing.T) {
	mock, repo := newMockRepo(t)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "client_name", "organization", "email", "phone",
		"need_type", "topic", "preferred_date_time",
		"consultant", "notes", "status", "created_at",
	}).AddRow(
		"a1", "Ana", "ONG Raíces", "ana@example.com", "",
		"Consulta General", "", "2026-02-11T09:00:00Z",
		"Bernarda Sarué", "", "scheduled", created,
	)
	mock.ExpectQuery("SELECT(.|\n)*FROM appointments").WillReturnRows(rows)

	appts, err := repo.FetchAppointments(context.Background())
	if err != nil {
		t.Fatalf("FetchAppointments: %v", err)
	}
	if len(appts) != 1 || appts[0].ID != "a1" || appts[0].Status != model.StatusScheduled {
		t.Fatalf("unexpected result: %+v", appts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAppointmentEnqueuesOutbox(t *testing.T) {
	mock, repo := newMockRepo(t)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("Ana", "", "ana@example.com", "", "Consulta General", "",
			"2026-02-11T09:00:00Z", "Asignado Manualmente", "", model.StatusScheduled).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("a1", created))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(pgxmock.AnyArg(), "a1", outbox.EventTypeAppointmentSaved,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := repo.CreateAppointment(context.Background(), model.Appointment{
		ClientName:        "Ana",
		Email:             "ana@example.com",
		NeedType:          "Consulta General",
		PreferredDateTime: "2026-02-11T09:00:00Z",
		Consultant:        "Asignado Manualmente",
		Status:            model.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if got.ID != "a1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected stored form: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAppointmentNormalizesTimestamp(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("Ana", "", "", "", "", "",
			"2026-02-11T09:00:00Z", DefaultConsultant, "", model.StatusNew).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("a2", time.Now()))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(pgxmock.AnyArg(), "a2", outbox.EventTypeAppointmentSaved,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	// Space-separated input converges on RFC 3339 at the write boundary; the
	// empty consultant picks up the storage default.
	_, err := repo.CreateAppointment(context.Background(), model.Appointment{
		ClientName:        "Ana",
		PreferredDateTime: "2026-02-11 09:00",
		Status:            model.StatusNew,
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("missing", model.StatusClosed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing", model.StatusClosed)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateNotes(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE appointments SET notes").
		WithArgs("a1", "llamó para confirmar").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateNotes(context.Background(), "a1", "llamó para confirmar"); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.DeleteAppointment(context.Background(), "a1"); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
