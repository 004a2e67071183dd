// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
)

// Identity represents the authenticated caller's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access caller information without depending on Gin.
type Identity interface {
	// Subject returns the authenticated subject ID (agency or operator).
	Subject() string
	// AgencyID returns the agency bound to an agency-scoped token, or "".
	AgencyID() string
	// Roles returns the subject's assigned roles.
	Roles() []string
	// HasRole checks if the subject has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	subject       string
	agencyID      string
	roles         []string
	authenticated bool
}

func (i *identity) Subject() string {
	return i.subject
}

func (i *identity) AgencyID() string {
	return i.agencyID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if subject info is not present.
func GetIdentity(c *gin.Context) Identity {
	subject, subjectOK := c.Get(ContextSubjectKey)
	if !subjectOK {
		return &identity{authenticated: false}
	}

	sub, ok := subject.(string)
	if !ok || sub == "" {
		return &identity{authenticated: false}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	var agencyID string
	if raw, ok := c.Get(ContextAgencyIDKey); ok {
		agencyID, _ = raw.(string)
	}

	return &identity{
		subject:       sub,
		agencyID:      agencyID,
		roles:         roleList,
		authenticated: true,
	}
}
