package roles

import (
	"errors"
	"fmt"
)

var ErrUnknownRole = errors.New("unknown role")

// Table is the read-only role/permission table loaded at startup.
type Table struct {
	roles  []Role
	byName map[string]int
}

func NewTable(rs []Role) (*Table, error) {
	t := &Table{roles: make([]Role, 0, len(rs)), byName: make(map[string]int, len(rs))}
	for _, r := range rs {
		if r.Name == "" {
			return nil, errors.New("role without name")
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate role %q", r.Name)
		}
		t.byName[r.Name] = len(t.roles)
		t.roles = append(t.roles, r)
	}
	return t, nil
}

func (t *Table) Get(name string) (Role, error) {
	i, ok := t.byName[name]
	if !ok {
		return Role{}, fmt.Errorf("%w: %s", ErrUnknownRole, name)
	}
	return t.roles[i], nil
}

func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

func (t *Table) Names() []string {
	out := make([]string, 0, len(t.roles))
	for _, r := range t.roles {
		out = append(out, r.Name)
	}
	return out
}
