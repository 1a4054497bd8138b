package chat

import (
	"strings"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
)

// canonicalID strips representation noise: case, whitespace, braces and hyphens.
func canonicalID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.Trim(id, "{}")
	return strings.ReplaceAll(id, "-", "")
}

// IsParticipant reports whether u takes part in conv and, if so, which stored participant id u maps to.
// Checks run in order:
//  1. exact id match
//  2. id match after canonicalization
//  3. role fallback: the pair resolves to exactly one admin and one seller, and the participant
//     holding u's role is the same account as u (same email)
//
// members are the resolved users of conv's participants; the last step is skipped without them.
func IsParticipant(u users.User, conv Conversation, members []users.User) (string, bool) {
	p := conv.Participants
	for _, id := range []string{p.A, p.B} {
		if id == u.ID {
			return id, true
		}
	}
	cu := canonicalID(u.ID)
	if cu != "" {
		for _, id := range []string{p.A, p.B} {
			if canonicalID(id) == cu {
				return id, true
			}
		}
	}

	if len(members) != 2 || u.Email == "" {
		return "", false
	}
	var admin, seller *users.User
	for i := range members {
		switch members[i].Role {
		case auth.RoleAdmin:
			admin = &members[i]
		case auth.RoleSeller:
			seller = &members[i]
		}
	}
	if admin == nil || seller == nil {
		return "", false
	}
	same := seller
	if u.Role == auth.RoleAdmin {
		same = admin
	}
	if !u.Role.Valid() || !strings.EqualFold(same.Email, u.Email) {
		return "", false
	}
	for _, id := range []string{p.A, p.B} {
		if canonicalID(id) == canonicalID(same.ID) {
			return id, true
		}
	}
	return "", false
}
