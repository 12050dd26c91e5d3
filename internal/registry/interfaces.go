package registry

import "slices"

// Authorizer decides whether a caller has administrator rights. It is
// implemented by the identity layer in front of the registry.
type Authorizer interface {
	IsAdmin(user string) bool
}

// AdminList is an Authorizer granting administrator rights to a fixed set
// of users.
type AdminList []string

// IsAdmin reports whether user is in the list. The anonymous user is never
// an administrator.
func (a AdminList) IsAdmin(user string) bool {
	return user != "" && slices.Contains(a, user)
}

// BuildContext identifies the build execution that locks resources.
type BuildContext interface {
	// BuildID uniquely identifies the running build, e.g. "nightly#42".
	BuildID() string
	// Project names the job the build belongs to. May be empty.
	Project() string
}

// Build is a plain BuildContext.
type Build struct {
	ID          string
	ProjectName string
}

// BuildID returns b.ID.
func (b Build) BuildID() string { return b.ID }

// Project returns b.ProjectName.
func (b Build) Project() string { return b.ProjectName }
