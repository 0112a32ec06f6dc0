// Package auth contains the role-based access-control policy. Role
// names from the join table are mapped onto a closed tier enum and the
// allow/deny decision is a pure function of the caller's tier set and
// the request method, so the rules can be tested exhaustively without
// a database or an HTTP stack.
package auth

// Tier is one of the three seeded role tiers.
type Tier int

const (
	TierUser Tier = iota
	TierManager
	TierAdministrator
)

// Role names as stored in tabel_role_data.
const (
	RoleUser          = "user"
	RoleManager       = "manager"
	RoleAdministrator = "administrator"
)

// ParseTier maps a stored rolename onto a tier. Unknown names are
// ignored by the policy, so the second return reports validity.
func ParseTier(rolename string) (Tier, bool) {
	switch rolename {
	case RoleUser:
		return TierUser, true
	case RoleManager:
		return TierManager, true
	case RoleAdministrator:
		return TierAdministrator, true
	}
	return 0, false
}

// TierSet is the resolved set of tiers held by a caller. A nil or empty
// set means the caller holds no recognized role.
type TierSet map[Tier]bool

// Tiers builds a TierSet from raw rolenames, dropping unknown names.
func Tiers(rolenames []string) TierSet {
	set := make(TierSet, len(rolenames))
	for _, name := range rolenames {
		if t, ok := ParseTier(name); ok {
			set[t] = true
		}
	}
	return set
}

func (s TierSet) anyOf(tiers ...Tier) bool {
	for _, t := range tiers {
		if s[t] {
			return true
		}
	}
	return false
}

// Allow is the standard policy used by the user, role and product
// services: reads are always permitted, POST/PUT/PATCH require any
// tier, DELETE requires manager or administrator. authenticated is
// false for anonymous callers, whose only permitted action is GET.
func Allow(authenticated bool, roles TierSet, method string) bool {
	if method == "GET" {
		return true
	}
	if !authenticated {
		return false
	}
	switch method {
	case "POST", "PUT", "PATCH":
		return roles.anyOf(TierUser, TierManager, TierAdministrator)
	case "DELETE":
		return roles.anyOf(TierManager, TierAdministrator)
	}
	return false
}

// AllowStrict is the module-registry policy: every operation, reads
// included, requires an authenticated caller holding manager or
// administrator.
func AllowStrict(authenticated bool, roles TierSet) bool {
	if !authenticated {
		return false
	}
	return roles.anyOf(TierManager, TierAdministrator)
}
