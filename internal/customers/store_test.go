package customers

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestGetByPhoneUnknownReturnsNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, phone, owner_name").
		WithArgs("5511999990000").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone", "owner_name"}))

	c, err := store.GetByPhone(context.Background(), "5511999990000")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCreateReturnsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs("5511999990000", "Maria").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.Create(context.Background(), "5511999990000", "Maria")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPets(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, customer_id, name").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "name"}).
			AddRow(int64(1), int64(7), "Rex").
			AddRow(int64(2), int64(7), "Mel"))

	pets, err := store.ListPets(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Equal(t, "Rex", pets[0].Name)
}
