package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSeedsCommittedValues(t *testing.T) {
	s := New(2, 20)
	s.Initialize()
	assert.Equal(t, 20, s.GetValueAt(2, 0)) // even: x2 = 20
	assert.True(t, s.HasVariable(1))        // x1 home is site 1+(1%10)=2
	assert.Equal(t, 10, s.GetValueAt(1, 0))
}

func TestHasVariableOddUniqueToHomeSite(t *testing.T) {
	s1 := New(1, 20)
	s2 := New(2, 20)
	// x1 -> home site 1+(1 mod 10) = 2
	assert.False(t, s1.HasVariable(1))
	assert.True(t, s2.HasVariable(1))
	assert.True(t, s2.IsUniqueVariable(1))
}

func TestFailMarksReplicatedStaleNotUnique(t *testing.T) {
	s := New(2, 20)
	s.Initialize()
	s.Fail()
	assert.True(t, s.IsStale(2))  // even/replicated
	assert.False(t, s.IsStale(1)) // odd/unique exempt
}

func TestRecoverDoesNotClearStale(t *testing.T) {
	s := New(2, 20)
	s.Initialize()
	s.Fail()
	s.Recover()
	assert.True(t, s.IsActive())
	assert.True(t, s.IsStale(2))
}

func TestCommitCacheClearsStaleAndPromotesValues(t *testing.T) {
	s := New(2, 20)
	s.Initialize()
	s.Fail()
	s.Recover()
	require.True(t, s.IsStale(2))

	s.CacheWrite(2, 99, 5)
	s.CommitCache(2, 1, nil)

	assert.False(t, s.IsStale(2))
	assert.Equal(t, 99, s.GetValueAt(2, 5))
	assert.Equal(t, 20, s.GetValueAt(2, 4)) // floor before the new commit
}

func TestLastCommittedTimeAtFloor(t *testing.T) {
	s := New(2, 20)
	s.Initialize()
	s.CacheWrite(2, 77, 3)
	s.CommitCache(2, 1, nil)
	s.CacheWrite(2, 88, 9)
	s.CommitCache(2, 1, nil)

	assert.Equal(t, 3, s.LastCommittedTimeAt(2, 5))
	assert.Equal(t, 9, s.LastCommittedTimeAt(2, 100))
	assert.Equal(t, 0, s.LastCommittedTimeAt(2, 0))
	assert.Equal(t, -1, s.LastCommittedTimeAt(2, -1))
}

func TestLatestCachedValueTracksNewestTick(t *testing.T) {
	s := New(2, 4)
	s.Initialize()
	assert.False(t, s.HasCachedWrite(2))
	s.CacheWrite(2, 1, 3)
	s.CacheWrite(2, 2, 7)
	assert.True(t, s.HasCachedWrite(2))
	assert.Equal(t, 2, s.LatestCachedValue(2))
}

func TestDumpReflectsCommittedOnly(t *testing.T) {
	s := New(2, 4)
	s.Initialize()
	s.CacheWrite(2, 999, 3)
	lines := s.Dump(3)
	assert.Contains(t, lines, "x2:20")
	assert.NotContains(t, lines, "x2:999")
}
