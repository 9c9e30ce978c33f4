package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nexcharge/apiserver/types"
)

var chargerCols = []string{
	"id", "name", "latitude", "longitude", "status", "connector_type",
	"power_output", "created_by", "created_at", "updated_at",
}

func TestChargerList_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*name.*FROM\s+chargers.*ORDER\s+BY\s+id`).
		WithArgs("Active", `%fast\_dc%`).
		WillReturnRows(sqlmock.NewRows(chargerCols).
			AddRow(1, "Fast_DC Hub", 1.5, 2.5, "Active", "CCS", 150.0, 4, now, now).
			AddRow(2, "Fast_DC Lot", 3.0, 4.0, "Active", "CCS", 50.0, nil, now, now))

	got, err := repo.List(context.Background(), types.ChargerFilter{Status: types.ChargerActive, Query: " fast_dc "})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chargers, got %d", len(got))
	}
	if got[0].CreatedBy == nil || *got[0].CreatedBy != 4 {
		t.Fatalf("unexpected createdBy: %+v", got[0].CreatedBy)
	}
	if got[1].CreatedBy != nil {
		t.Fatalf("expected nil createdBy, got %v", *got[1].CreatedBy)
	}
	if got[0].Location.Latitude != 1.5 || got[0].Status != types.ChargerActive {
		t.Fatalf("unexpected charger: %+v", got[0])
	}
}

func TestChargerList_EmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)

	mock.ExpectQuery(`FROM\s+chargers`).
		WithArgs("", "").
		WillReturnRows(sqlmock.NewRows(chargerCols))

	got, err := repo.List(context.Background(), types.ChargerFilter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestChargerCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)
	creator := 7

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+chargers.*RETURNING\s+id`).
		WithArgs("C1", 1.0, 2.0, "Active", "Type2", 50.0, 7, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	got, err := repo.Create(context.Background(), types.Charger{
		Name:          "C1",
		Location:      types.Location{Latitude: 1, Longitude: 2},
		Status:        types.ChargerActive,
		ConnectorType: "Type2",
		PowerOutput:   50,
		CreatedBy:     &creator,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 21 {
		t.Fatalf("unexpected id %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestChargerUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)UPDATE\s+chargers.*COALESCE\(\$5,\s*connector_type\).*WHERE\s+id\s*=\s*\$8\s+RETURNING`).
		WithArgs("C2", 5.0, 6.0, "Inactive", nil, nil, sqlmock.AnyArg(), 3).
		WillReturnRows(sqlmock.NewRows(chargerCols).
			AddRow(3, "C2", 5.0, 6.0, "Inactive", "CCS", 22.0, nil, now, now))

	got, err := repo.Update(context.Background(), types.ChargerUpdate{
		ID:       3,
		Name:     "C2",
		Location: types.Location{Latitude: 5, Longitude: 6},
		Status:   types.ChargerInactive,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.ConnectorType != "CCS" || got.PowerOutput != 22 || got.Status != types.ChargerInactive {
		t.Fatalf("unexpected charger: %+v", got)
	}

	mock.ExpectQuery(`UPDATE\s+chargers`).WillReturnRows(sqlmock.NewRows(chargerCols))
	if _, err := repo.Update(context.Background(), types.ChargerUpdate{ID: 99, Name: "x", Status: types.ChargerActive}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChargerDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)

	mock.ExpectExec(`DELETE\s+FROM\s+chargers\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	mock.ExpectExec(`DELETE\s+FROM\s+chargers`).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChargerGet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChargerRepository(db)

	mock.ExpectQuery(`FROM\s+chargers\s+WHERE\s+id`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(chargerCols))

	if _, err := repo.Get(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("escapeLike = %q", got)
	}
}
