package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

func newMockStore(t *testing.T) (*repository.Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := pgdriver.New(pgdriver.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewStore(gormDB), mock, mockDB
}

func TestUnitsUpdate(t *testing.T) {
	t.Run("locks the row and bumps version", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "units" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "unit_number", "status", "version"}).
				AddRow("u1", "p1", "101", "vacant", 2))
		mock.ExpectExec(`UPDATE "units" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		unit, err := store.Units.Update(context.Background(), "u1", func(u *models.Unit) error {
			u.Status = models.UnitOccupied
			u.TenantID = "t1"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), unit.Version)
		assert.Equal(t, "t1", unit.TenantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutation error rolls back", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "units" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "status", "version"}).
				AddRow("u1", "p1", "occupied", 5))
		mock.ExpectRollback()

		_, err := store.Units.Update(context.Background(), "u1", func(*models.Unit) error {
			return apperr.Conflict("already occupied")
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing unit", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "units" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := store.Units.Update(context.Background(), "nope", func(*models.Unit) error { return nil })
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRentCreateIfAbsent(t *testing.T) {
	record := &models.RentRecord{ID: "r1", PropertyID: "p1", UnitID: "u1", Period: "2024-03", BaseRent: 1000, Status: models.RentPending}

	t.Run("inserted", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "rent_records" .*ON CONFLICT \("unit_id","period"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := store.Rent.CreateIfAbsent(context.Background(), record)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already generated", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "rent_records" .*ON CONFLICT \("unit_id","period"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := store.Rent.CreateIfAbsent(context.Background(), record)
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRentApplyPayment(t *testing.T) {
	columns := []string{"id", "unit_id", "period", "base_rent", "amount_paid", "status", "applied_orders"}

	t.Run("credits under a row lock", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "rent_records" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("r1", "u1", "2024-03", 1000.0, 0.0, "pending", nil))
		mock.ExpectExec(`UPDATE "rent_records" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec, applied, err := store.Rent.ApplyPayment(context.Background(), "r1", "order_1", 400)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, models.RentPartial, rec.Status)
		assert.Equal(t, 400.0, rec.AmountPaid)
		assert.Equal(t, []string{"order_1"}, rec.AppliedOrders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order already credited", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "rent_records" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("r1", "u1", "2024-03", 1000.0, 400.0, "partial", `["order_1"]`))
		mock.ExpectCommit()

		rec, applied, err := store.Rent.ApplyPayment(context.Background(), "r1", "order_1", 400)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 400.0, rec.AmountPaid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "rent_records" WHERE id = \$1.*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(columns))
		mock.ExpectRollback()

		_, _, err := store.Rent.ApplyPayment(context.Background(), "missing", "order_1", 10)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUsersCreate(t *testing.T) {
	store, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Users.Create(context.Background(), &models.User{ID: "t1", Role: models.RoleTenant}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersUpsertLocksRow(t *testing.T) {
	store, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users" .*ON CONFLICT DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role", "fcm_token", "owner_id"}).
			AddRow("t1", "Old", "tenant", "device", "o1"))
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := store.Users.Upsert(context.Background(), "t1", func(u *models.User) error {
		u.Name = "Asha"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "device", u.FCMToken)
	assert.Equal(t, "o1", u.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentsMarkPaidAlreadyPaid(t *testing.T) {
	store, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "payments" SET .* WHERE order_id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE order_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "payment_id", "status"}).
			AddRow("p1", "order_1", "pay_1", "paid"))

	p, changed, err := store.Payments.MarkPaid(context.Background(), "order_1", "pay_2")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "pay_1", p.PaymentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpensesDeleteMissing(t *testing.T) {
	store, mock, mockDB := newMockStore(t)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM "expenses" WHERE id = \$1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Expenses.Delete(context.Background(), "e1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
