package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAcquireReadNoHolder(t *testing.T) {
	lt := NewLockTable()
	assert.Equal(t, Allowed, lt.CanAcquireRead(1, 10))
}

func TestCanAcquireReadJoinsExistingRead(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, ReadLock)
	assert.Equal(t, AllowedIfQueueEmpty, lt.CanAcquireRead(1, 20))
}

func TestCanAcquireReadDeniedByOtherWrite(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, WriteLock)
	assert.Equal(t, Denied, lt.CanAcquireRead(1, 20))
}

func TestCanAcquireReadSameTxnHoldsWrite(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, WriteLock)
	assert.Equal(t, AllowedSameTxn, lt.CanAcquireRead(1, 10))
}

func TestCanAcquireWriteUpgradeSoleReader(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, ReadLock)
	assert.Equal(t, AllowedIfQueueEmpty, lt.CanAcquireWrite(1, 10))
}

func TestCanAcquireWriteDeniedMultipleReaders(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, ReadLock)
	lt.Acquire(1, 20, ReadLock)
	assert.Equal(t, Denied, lt.CanAcquireWrite(1, 10))
}

func TestCanAcquireWriteIdempotent(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, WriteLock)
	assert.Equal(t, Allowed, lt.CanAcquireWrite(1, 10))
}

func TestAcquireReadDoesNotDowngradeOwnWriteLock(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, WriteLock)
	lt.Acquire(1, 10, ReadLock)
	assert.Equal(t, Denied, lt.CanAcquireRead(1, 20))
	assert.Equal(t, Allowed, lt.CanAcquireWrite(1, 10))
}

func TestReleaseTransactionDropsEmptyRecord(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, WriteLock)
	lt.ReleaseTransaction(10)
	assert.Equal(t, Allowed, lt.CanAcquireWrite(1, 20))
	assert.Empty(t, lt.Holders(1))
}

func TestReleaseTransactionLeavesOtherReaders(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, ReadLock)
	lt.Acquire(1, 20, ReadLock)
	lt.ReleaseTransaction(10)
	assert.ElementsMatch(t, []int{20}, lt.Holders(1))
}

func TestReleaseAllClearsEverything(t *testing.T) {
	lt := NewLockTable()
	lt.Acquire(1, 10, ReadLock)
	lt.Acquire(2, 20, WriteLock)
	lt.ReleaseAll()
	assert.Empty(t, lt.Holders(1))
	assert.Empty(t, lt.Holders(2))
}
