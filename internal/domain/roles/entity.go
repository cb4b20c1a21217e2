package roles

import "slices"

// Permission tokens checked by the service. Roles may carry others that are
// only meaningful to the dashboard.
const (
	PermUploadDocuments = "upload_documents"
	PermViewAllClients  = "view_all_clients"
	PermAuditTrails     = "audit_trails"
)

// Prompt is one analysis kind of a role and the template used to request it.
type Prompt struct {
	Kind     string `json:"kind"`
	Template string `json:"template"`
}

// Role is static configuration. Prompts keep their declaration order, which is
// the order insights are produced in.
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Widgets     []string `json:"widgets"`
	Prompts     []Prompt `json:"prompts"`
}

func (r Role) HasPermission(token string) bool {
	return slices.Contains(r.Permissions, token)
}

// Kinds lists the analysis kinds of the role in order.
func (r Role) Kinds() []string {
	out := make([]string, 0, len(r.Prompts))
	for _, p := range r.Prompts {
		out = append(out, p.Kind)
	}
	return out
}

func (r Role) Prompt(kind string) (Prompt, bool) {
	for _, p := range r.Prompts {
		if p.Kind == kind {
			return p, true
		}
	}
	return Prompt{}, false
}
