/*
file: respd/internal/store/store_test.go
*/
package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAllocatesFreshTagEachTime(t *testing.T) {
	s := New()
	t1 := s.Insert("k", Value{Str: []byte("a")})
	t2 := s.Insert("k", Value{Str: []byte("b")})
	assert.NotEqual(t, t1, t2, "tags must be unique per incarnation")
	assert.Less(t, t1, t2, "tags must be strictly increasing")
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, _, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	s := New()
	s.Insert("k", Value{Str: []byte("v")})
	v, _, ok := s.Remove("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v.Str)

	_, _, ok = s.Get("k")
	assert.False(t, ok)
}

func TestPutWithTagPreservesTag(t *testing.T) {
	s := New()
	tag := s.Insert("k", Value{IsArray: true, Arr: [][]byte{[]byte("a")}})
	s.PutWithTag("k", tag, Value{IsArray: true, Arr: [][]byte{[]byte("a"), []byte("b")}})

	v, gotTag, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, tag, gotTag)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, v.Arr)
}

// TestPutWithTagRemovesEmptyArray checks that a stored Array must
// never be empty, so writing one back empty deletes the key entirely
// instead.
func TestPutWithTagRemovesEmptyArray(t *testing.T) {
	s := New()
	tag := s.Insert("k", Value{IsArray: true, Arr: [][]byte{[]byte("a")}})
	s.PutWithTag("k", tag, Value{IsArray: true, Arr: nil})

	_, _, ok := s.Get("k")
	assert.False(t, ok)
}

func TestEnsureArrayCreatesThenReuses(t *testing.T) {
	s := New()
	v1, tag1, ok := s.EnsureArray("list")
	require.True(t, ok)
	assert.True(t, v1.IsArray)
	assert.Empty(t, v1.Arr)

	_, tag2, ok := s.EnsureArray("list")
	require.True(t, ok)
	assert.Equal(t, tag1, tag2)
}

func TestEnsureArrayWrongType(t *testing.T) {
	s := New()
	s.Insert("str", Value{Str: []byte("x")})
	_, _, ok := s.EnsureArray("str")
	assert.False(t, ok)
}

func TestRetagEntry(t *testing.T) {
	s := New()
	tag := s.Insert("k", Value{Str: []byte("v")})
	newTag, ok := s.RetagEntry("k")
	require.True(t, ok)
	assert.NotEqual(t, tag, newTag)

	_, gotTag, _ := s.Get("k")
	assert.Equal(t, newTag, gotTag)
}

func TestRetagEntryMissing(t *testing.T) {
	s := New()
	_, ok := s.RetagEntry("missing")
	assert.False(t, ok)
}

// TestRenamePreservesTagAndOverwritesDestination checks that RENAME
// silently overwrites an existing destination and the moved entry
// keeps its original tag (and thus any pending TTL, re-pushed by the
// caller).
func TestRenamePreservesTagAndOverwritesDestination(t *testing.T) {
	s := New()
	srcTag := s.Insert("src", Value{Str: []byte("s")})
	s.Insert("dst", Value{Str: []byte("d")})

	v, tag, ok := s.Rename("src", "dst")
	require.True(t, ok)
	assert.Equal(t, srcTag, tag)
	assert.Equal(t, []byte("s"), v.Str)

	_, _, ok = s.Get("src")
	assert.False(t, ok)

	gotV, gotTag, ok := s.Get("dst")
	require.True(t, ok)
	assert.Equal(t, srcTag, gotTag)
	assert.Equal(t, []byte("s"), gotV.Str)
}

func TestRenameMissingSource(t *testing.T) {
	s := New()
	_, _, ok := s.Rename("nope", "dst")
	assert.False(t, ok)
}

// TestExpireIndexStaleRecordIgnored checks that re-arming a TTL (via
// retagging) makes the old heap record a no-op when it finally pops.
func TestExpireIndexStaleRecordIgnored(t *testing.T) {
	s := New()
	tag := s.Insert("k", Value{Str: []byte("v")})

	past := time.Now().Add(-time.Hour)
	s.expire.Push("k", tag, past)

	newTag, ok := s.RetagEntry("k")
	require.True(t, ok)

	exp, ok := s.expire.TryPop(time.Now())
	require.True(t, ok)
	assert.Equal(t, tag, exp.Tag)
	assert.NotEqual(t, newTag, exp.Tag)

	_, curTag, present := s.Get("k")
	require.True(t, present)
	assert.NotEqual(t, exp.Tag, curTag, "stale popped tag must not match the live entry")
}

func TestExpireIndexNextDeadlineOrdering(t *testing.T) {
	e := NewExpireIndex()
	later := time.Now().Add(time.Minute)
	sooner := time.Now().Add(time.Second)

	e.Push("a", 1, later)
	e.Push("b", 2, sooner)

	d, ok := e.NextDeadline()
	require.True(t, ok)
	assert.True(t, d.Equal(sooner))
}

func TestExpireIndexTryPopRespectsDeadline(t *testing.T) {
	e := NewExpireIndex()
	future := time.Now().Add(time.Hour)
	e.Push("a", 1, future)

	_, ok := e.TryPop(time.Now())
	assert.False(t, ok, "nothing should be due yet")

	_, ok = e.TryPop(future.Add(time.Second))
	assert.True(t, ok)
}
