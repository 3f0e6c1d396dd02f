package roles

import (
	"fmt"
	"strings"
)

// Level is the hierarchy level an access entry is scoped to.
type Level string

const (
	LevelCustomer         Level = "customer"
	LevelOrganization     Level = "organization"
	LevelInstitution      Level = "institution"
	LevelOrganizationUnit Level = "organization_unit"
)

// Chain is implemented by every composite identifier: the ordered hex
// segments naming the node, ancestors first.
type Chain interface {
	AccessChain() []string
}

// Access is one access-control entry: a level plus the id chain of the
// node it grants access to.
type Access struct {
	Level    Level
	Segments []string
}

// NewAccess builds an access entry for a node.
func NewAccess(level Level, id Chain) Access {
	return Access{Level: level, Segments: id.AccessChain()}
}

// String renders the stable role name.
func (a Access) String() string {
	if len(a.Segments) == 0 {
		return string(a.Level)
	}
	return string(a.Level) + ":" + strings.Join(a.Segments, "-")
}

// Parse decodes a role name back into an access entry. Role names that
// do not follow the format (built-in realm roles and the like) return an
// error and are skipped by callers.
func Parse(s string) (Access, error) {
	level, chain, ok := strings.Cut(s, ":")
	if !ok || chain == "" {
		return Access{}, fmt.Errorf("malformed access role %q", s)
	}
	switch Level(level) {
	case LevelCustomer, LevelOrganization, LevelInstitution, LevelOrganizationUnit:
	default:
		return Access{}, fmt.Errorf("unknown access level %q", level)
	}
	return Access{Level: Level(level), Segments: strings.Split(chain, "-")}, nil
}
