package chat

import (
	"testing"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/stretchr/testify/assert"
)

func TestIsParticipant(t *testing.T) {
	conv := Conversation{ID: "c1", Participants: NewPair(adminID, sellerID)}
	dir := directory()
	members := []users.User{dir[adminID], dir[sellerID]}

	tests := []struct {
		name    string
		user    users.User
		members []users.User
		want    string
		ok      bool
	}{
		{"exact", dir[sellerID], nil, sellerID, true},
		{"braced upper-case id", users.User{ID: "{5E000000-0000-0000-0000-000000000002}"}, nil, sellerID, true},
		{"id without hyphens", users.User{ID: "0a000000000000000000000000000001"}, nil, adminID, true},
		{"outsider", dir[seller2ID], members, "", false},
		{
			"same seller under another id",
			users.User{ID: "legacy-7", Email: "SELLER@x.io", Role: auth.RoleSeller},
			members, sellerID, true,
		},
		{
			"role fallback needs members",
			users.User{ID: "legacy-7", Email: "seller@x.io", Role: auth.RoleSeller},
			nil, "", false,
		},
		{
			"role fallback needs same email",
			users.User{ID: "legacy-8", Email: "other@x.io", Role: auth.RoleAdmin},
			members, "", false,
		},
		{
			"role fallback needs admin and seller",
			users.User{ID: "legacy-9", Email: "seller@x.io", Role: auth.RoleSeller},
			[]users.User{dir[sellerID], dir[seller2ID]}, "", false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsParticipant(tt.user, conv, tt.members)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
