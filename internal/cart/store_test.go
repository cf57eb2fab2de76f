package cart

import (
	"testing"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_LoadEmpty(t *testing.T) {
	store := NewSessionStore("")
	lines, err := store.Load(session.New())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSessionStore_SaveMarksModifiedAndKeepsOrder(t *testing.T) {
	store := NewSessionStore(DefaultSessionKey)
	sess := session.New()

	lines := domain.CartLines{{ProductID: 5, Quantity: 1}, {ProductID: 2, Quantity: 3}}
	require.NoError(t, store.Save(sess, lines))
	assert.True(t, sess.Modified())

	loaded, err := store.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, lines, loaded)
}

func TestSessionStore_Clear(t *testing.T) {
	store := NewSessionStore(DefaultSessionKey)
	sess := session.New()

	store.Clear(sess)
	assert.False(t, sess.Modified())

	require.NoError(t, store.Save(sess, domain.CartLines{{ProductID: 1, Quantity: 1}}))
	store.Clear(sess)
	assert.False(t, sess.Has(DefaultSessionKey))
}
