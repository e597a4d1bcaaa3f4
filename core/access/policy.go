// Package access decides what an authenticated principal may see and do based
// on their role. Denial is always a soft redirect, never an error: principals
// with an unknown or missing role are sent to the login view (fail-closed),
// and principals whose role is outside a route's allowed set are sent to
// their own dashboard.
package access

import "github.com/taqyimhq/taqyim/core/user"

// Views (client route targets).
const (
	ViewLogin              = "/login"
	ViewAdminDashboard     = "/admin"
	ViewManagerDashboard   = "/manager"
	ViewEmployeeDashboard  = "/employee"
	ViewReviewerDashboard  = "/reviewer"
	ViewReports            = "/reports"
	ViewFormsManagement    = "/admin/forms"
	ViewCentersManagement  = "/admin/centers"
	ViewUsersManagement    = "/admin/users"
	ViewVisitsManagement   = "/admin/visits"
)

type Decision struct {
	Allowed  bool
	Redirect string // redirect target when not allowed
}

var (
	Allow = Decision{Allowed: true}

	defaultViews = map[string]string{
		user.RoleAdmin:    ViewAdminDashboard,
		user.RoleManager:  ViewManagerDashboard,
		user.RoleEmployee: ViewEmployeeDashboard,
		user.RoleReviewer: ViewReviewerDashboard,
	}
)

// DefaultView maps a role to its dashboard. Total over the role set; an
// unknown role maps to the login view.
func DefaultView(role string) string {
	if view, ok := defaultViews[role]; ok {
		return view
	}
	return ViewLogin
}

// DenyRedirect reports whether d denies access, and to where.
func (d Decision) DenyRedirect() (string, bool) {
	return d.Redirect, !d.Allowed
}

// Authorize decides whether a principal with the given role may access a
// route restricted to allowedRoles. An empty allowedRoles set admits any
// known role.
func Authorize(role string, allowedRoles ...string) Decision {
	if !user.KnownRole(role) {
		return Decision{Redirect: ViewLogin}
	}
	if len(allowedRoles) == 0 {
		return Allow
	}
	for _, allowed := range allowedRoles {
		if role == allowed {
			return Allow
		}
	}
	return Decision{Redirect: DefaultView(role)}
}

type Link struct {
	Label string `json:"label"`
	To    string `json:"to"`
}

var navLinks = map[string][]Link{
	user.RoleAdmin: {
		{Label: "Dashboard", To: ViewAdminDashboard},
		{Label: "Forms", To: ViewFormsManagement},
		{Label: "Centers", To: ViewCentersManagement},
		{Label: "Users", To: ViewUsersManagement},
		{Label: "Field Visits", To: ViewVisitsManagement},
		{Label: "Reports", To: ViewReports},
	},
	user.RoleManager: {
		{Label: "Dashboard", To: ViewManagerDashboard},
		{Label: "Reports", To: ViewReports},
	},
	user.RoleEmployee: {
		{Label: "Dashboard", To: ViewEmployeeDashboard},
	},
	user.RoleReviewer: {
		{Label: "Dashboard", To: ViewReviewerDashboard},
		{Label: "Field Visits", To: ViewVisitsManagement},
		{Label: "Reports", To: ViewReports},
	},
}

// NavLinks returns the navigation links visible to a role. Kept consistent
// with Authorize: every linked view is reachable by that role. The result is
// a copy; callers may mutate it freely.
func NavLinks(role string) []Link {
	links, ok := navLinks[role]
	if !ok {
		return nil
	}
	out := make([]Link, len(links))
	copy(out, links)
	return out
}
