package board

import (
	"testing"

	"planboard/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestMemberKey(t *testing.T) {
	tests := []struct {
		name     string
		member   domain.Member
		expected string
	}{
		{
			name:     "email local part lowercased",
			member:   domain.Member{Name: "Ada", Email: "Ada.Lovelace@Example.com"},
			expected: "ada.lovelace",
		},
		{
			name:     "email without at sign used whole",
			member:   domain.Member{Name: "Ben", Email: "BEN"},
			expected: "ben",
		},
		{
			name:     "falls back to name slug",
			member:   domain.Member{Name: "Cara Jane Smith"},
			expected: "cara-jane-smith",
		},
		{
			name:     "empty member gets placeholder",
			member:   domain.Member{},
			expected: "member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MemberKey(tt.member))
		})
	}
}

func TestAtomicID_Deterministic(t *testing.T) {
	never := func(domain.EntityID) bool { return false }

	a := AtomicID("Team-9", "ada", never)
	b := AtomicID("Team-9", "ada", never)
	assert.Equal(t, a, b)
	assert.Equal(t, domain.EntityID("split:team-9:ada"), a)
}

func TestAtomicID_CollisionSuffix(t *testing.T) {
	used := map[domain.EntityID]bool{
		"split:team-9:ada":   true,
		"split:team-9:ada-2": true,
	}
	id := AtomicID("team-9", "ada", func(id domain.EntityID) bool { return used[id] })
	assert.Equal(t, domain.EntityID("split:team-9:ada-3"), id)
}

func TestCompositeID(t *testing.T) {
	a := &domain.Entity{ID: "x", Members: []domain.Member{{Email: "Ada@Example.com"}}}
	b := &domain.Entity{ID: "y", Members: []domain.Member{{Email: "ben@example.com"}}}
	never := func(domain.EntityID) bool { return false }

	assert.Equal(t, domain.EntityID("pair:ada@example.com+ben@example.com"), CompositeID(a, b, never))

	// Entities without a primary email fall back to their id.
	c := &domain.Entity{ID: "Team-3"}
	assert.Equal(t, domain.EntityID("pair:ada@example.com+team-3"), CompositeID(a, c, never))
}
