package board

import (
	"fmt"
	"strings"

	"planboard/internal/domain"
)

// Synthetic ids are deterministic functions of their inputs so that a
// re-split of the same team reproduces the same atomic ids. The id string is
// display-friendly but opaque to the rest of the system; kind discrimination
// always goes through EntityRef.

// MemberKey derives the identity key for a member: the lowercased local part
// of the email, falling back to a slug of the name.
func MemberKey(m domain.Member) string {
	if at := strings.IndexByte(m.Email, '@'); at > 0 {
		return strings.ToLower(m.Email[:at])
	}
	if m.Email != "" {
		return strings.ToLower(m.Email)
	}
	return slug(m.Name)
}

// AtomicID derives the id for an atomic participant split out of parent.
// taken reports ids already in use; collisions get a numeric suffix.
func AtomicID(parent domain.EntityID, memberKey string, taken func(domain.EntityID) bool) domain.EntityID {
	base := fmt.Sprintf("split:%s:%s", strings.ToLower(string(parent)), memberKey)
	return withSuffix(base, taken)
}

// CompositeID derives the id for a composite formed from two components,
// named after their primary member emails.
func CompositeID(a, b *domain.Entity, taken func(domain.EntityID) bool) domain.EntityID {
	base := fmt.Sprintf("pair:%s+%s", primaryKey(a), primaryKey(b))
	return withSuffix(base, taken)
}

func withSuffix(base string, taken func(domain.EntityID) bool) domain.EntityID {
	id := domain.EntityID(base)
	for n := 2; taken(id); n++ {
		id = domain.EntityID(fmt.Sprintf("%s-%d", base, n))
	}
	return id
}

func primaryKey(e *domain.Entity) string {
	if len(e.Members) > 0 && e.Members[0].Email != "" {
		return strings.ToLower(e.Members[0].Email)
	}
	return strings.ToLower(string(e.ID))
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "member"
	}
	return b.String()
}
