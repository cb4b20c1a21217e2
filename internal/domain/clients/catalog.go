package clients

import (
	"errors"
	"fmt"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
)

var ErrUnknownClient = errors.New("unknown client")

// restrictedVisible is how many clients a role without view_all_clients sees.
const restrictedVisible = 2

// Catalog holds client profiles in configuration order.
type Catalog struct {
	profiles []Profile
}

func NewCatalog(ps []Profile) *Catalog {
	return &Catalog{profiles: append([]Profile(nil), ps...)}
}

func (c *Catalog) Get(name string) (Profile, error) {
	for _, p := range c.profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrUnknownClient, name)
}

func (c *Catalog) All() []Profile {
	return append([]Profile(nil), c.profiles...)
}

// VisibleTo returns the clients a role may select.
func (c *Catalog) VisibleTo(r roles.Role) []Profile {
	if r.HasPermission(roles.PermViewAllClients) || len(c.profiles) <= restrictedVisible {
		return c.All()
	}
	return append([]Profile(nil), c.profiles[:restrictedVisible]...)
}

// Lookup resolves a client that must also be visible to the role.
func (c *Catalog) Lookup(name string, r roles.Role) (Profile, error) {
	for _, p := range c.VisibleTo(r) {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrUnknownClient, name)
}
