package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContactID_MonotonicAndUnique(t *testing.T) {
	seen := map[int64]bool{}
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := NewContactID()
		assert.Greater(t, id, prev)
		assert.False(t, seen[id])
		seen[id] = true
		prev = id
	}
}

func TestIdentity_Namespace(t *testing.T) {
	assert.Equal(t, "guest", Identity("").Namespace())
	assert.True(t, Identity("").IsGuest())
	assert.Equal(t, "u-123", Identity("u-123").Namespace())
	assert.False(t, Identity("u-123").IsGuest())
}

func TestContactPatch_Apply(t *testing.T) {
	c := Contact{ID: 7, Name: "Old", Company: "Acme", IsFavorite: false, Tags: []string{"a"}}
	p := ContactPatch{Name: ptr("New"), IsFavorite: ptr(true)}
	p.Apply(&c)

	assert.Equal(t, "New", c.Name)
	assert.True(t, c.IsFavorite)
	// untouched fields survive
	assert.Equal(t, "Acme", c.Company)
	assert.Equal(t, []string{"a"}, c.Tags)
	assert.Equal(t, int64(7), c.ID)
}

func TestContactPatch_Fields(t *testing.T) {
	p := ContactPatch{Name: ptr("X"), Tags: ptr([]string{"t1", "t2"})}
	m := p.Fields()
	assert.Equal(t, map[string]any{"name": "X", "tags": []string{"t1", "t2"}}, m)
	assert.False(t, p.IsEmpty())
	assert.True(t, ContactPatch{}.IsEmpty())
}

func TestRandomColor_FromPalette(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Contains(t, AvatarColors, RandomColor())
	}
}

func TestSeedContacts_SortedDescending(t *testing.T) {
	seed := SeedContacts()
	for i := 1; i < len(seed); i++ {
		assert.Greater(t, seed[i-1].ID, seed[i].ID)
	}
}
