package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRunOnce(t *testing.T) {
	db, mock := newMockDB(t)
	c := newTestChain(testChainID)
	c.bitmap = new(big.Int).Lsh(big.NewInt(1), 255)

	owner := ownerAddr.Hex()
	rows := sqlmock.NewRows(permitColumns).
		AddRow(1, "511", "0xt", owner, "0xb", "1", testChainID, "0xs", nil, 0, 1, 1, 0).
		AddRow(2, "510", "0xt", owner, "0xb", "1", testChainID, "0xs", nil, 0, 1, 1, 0).
		AddRow(3, "511", "0xt", owner, "0xb", "1", 5, "0xs", nil, 0, 1, 1, 0)
	mock.ExpectQuery("^SELECT (.+) FROM `permits` WHERE").WithArgs(0, 10).WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("^UPDATE `permits` SET").WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewReconcileService(db, map[uint64]ContractCaller{testChainID: c.backend}, permit2Addr, 10)
	spent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, spent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcilePages(t *testing.T) {
	db, mock := newMockDB(t)
	c := newTestChain(testChainID)

	owner := ownerAddr.Hex()
	mock.ExpectQuery("^SELECT (.+) FROM `permits` WHERE").WithArgs(0, 2).WillReturnRows(
		sqlmock.NewRows(permitColumns).
			AddRow(4, "1", "0xt", owner, "0xb", "1", testChainID, "0xs", nil, 0, 1, 1, 0).
			AddRow(9, "2", "0xt", owner, "0xb", "1", testChainID, "0xs", nil, 0, 1, 1, 0),
	)
	mock.ExpectQuery("^SELECT (.+) FROM `permits` WHERE").WithArgs(9, 2).WillReturnRows(sqlmock.NewRows(permitColumns))

	s := NewReconcileService(db, map[uint64]ContractCaller{testChainID: c.backend}, permit2Addr, 2)
	spent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, spent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
