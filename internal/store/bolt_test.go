package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "askbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordOutcome(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return first }

	require.NoError(t, s.RecordOutcome("42", "answered"))
	s.now = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, s.RecordOutcome("42", "answered"))
	require.NoError(t, s.RecordOutcome("42", "timeout"))

	c, err := s.GetChat("42")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "42", c.ID)
	assert.Equal(t, 3, c.Questions)
	assert.Equal(t, map[string]int{"answered": 2, "timeout": 1}, c.Outcomes)
	assert.True(t, c.FirstSeen.Equal(first))
	assert.True(t, c.LastSeen.Equal(first.Add(time.Hour)))
}

func TestGetChat_Unknown(t *testing.T) {
	s := newTestStore(t)

	c, err := s.GetChat("nope")

	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestListAndDeleteChats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.RecordOutcome("b", "answered"))
	require.NoError(t, s.RecordOutcome("a", "failed"))

	chats, err := s.ListChats()
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "a", chats[0].ID)
	assert.Equal(t, "b", chats[1].ID)

	require.NoError(t, s.DeleteChat("a"))
	chats, err = s.ListChats()
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestReopenKeepsChats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askbot.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordOutcome("1", "answered"))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	c, err := s.GetChat("1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Questions)
}
