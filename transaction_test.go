package cml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionCommitOnce(t *testing.T) {
	txn := newTransaction()
	assert.True(t, txn.Active())

	assert.True(t, txn.TryCommit())
	assert.True(t, txn.Committed())
	assert.False(t, txn.TryCommit())
	assert.False(t, txn.TryCancel())

	select {
	case <-txn.Done():
	default:
		t.Fatal("Done channel should be closed after commit")
	}
}

func TestTransactionCancelOnce(t *testing.T) {
	txn := newTransaction()
	assert.True(t, txn.TryCancel())
	assert.True(t, txn.Cancelled())
	assert.False(t, txn.TryCancel())
	assert.False(t, txn.TryCommit())
}

func TestTransactionCleanupRunsOnCommitAndCancel(t *testing.T) {
	var ran int
	txn := newTransaction()
	txn.SetCleanup(func() { ran++ })
	txn.TryCommit()
	assert.Equal(t, 1, ran)

	txn2 := newTransaction()
	txn2.SetCleanup(func() { ran++ })
	txn2.TryCancel()
	assert.Equal(t, 2, ran)
}

func TestTransactionSetCleanupAfterTerminalIsNoop(t *testing.T) {
	var ran bool
	txn := newTransaction()
	txn.TryCommit()
	txn.SetCleanup(func() { ran = true })
	assert.False(t, ran)
}
