package access

import (
	"testing"

	"github.com/taqyimhq/taqyim/core/user"
)

func TestDefaultView(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: user.RoleAdmin, want: ViewAdminDashboard},
		{role: user.RoleManager, want: ViewManagerDashboard},
		{role: user.RoleEmployee, want: ViewEmployeeDashboard},
		{role: user.RoleReviewer, want: ViewReviewerDashboard},
		{role: "", want: ViewLogin},
		{role: "superuser", want: ViewLogin},
		{role: "Admin", want: ViewLogin}, // roles are case sensitive
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := DefaultView(tt.role); got != tt.want {
				t.Errorf("DefaultView(%q) = %q; want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name         string
		role         string
		allowedRoles []string
		wantAllowed  bool
		wantRedirect string
	}{
		{name: "unknown role is sent to login", role: "superuser", allowedRoles: []string{user.RoleAdmin}, wantRedirect: ViewLogin},
		{name: "empty role is sent to login", role: "", wantRedirect: ViewLogin},
		{name: "empty allowed set admits any known role", role: user.RoleEmployee, wantAllowed: true},
		{name: "member of allowed set", role: user.RoleManager, allowedRoles: []string{user.RoleAdmin, user.RoleManager}, wantAllowed: true},
		{name: "non-member bounced to own dashboard", role: user.RoleEmployee, allowedRoles: []string{user.RoleAdmin}, wantRedirect: ViewEmployeeDashboard},
		{name: "reviewer bounced off admin route", role: user.RoleReviewer, allowedRoles: []string{user.RoleAdmin, user.RoleManager}, wantRedirect: ViewReviewerDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.role, tt.allowedRoles...)
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Authorize() Allowed = %v; want %v", d.Allowed, tt.wantAllowed)
			}
			redirect, denied := d.DenyRedirect()
			if denied == tt.wantAllowed {
				t.Errorf("DenyRedirect() denied = %v; want %v", denied, !tt.wantAllowed)
			}
			if redirect != tt.wantRedirect {
				t.Errorf("DenyRedirect() redirect = %q; want %q", redirect, tt.wantRedirect)
			}
		})
	}

	// every known role passes an unrestricted route
	for _, role := range user.AllRoles {
		if d := Authorize(role); !d.Allowed {
			t.Errorf("Authorize(%q) denied on unrestricted route", role)
		}
	}
}

func TestNavLinks(t *testing.T) {
	for _, role := range user.AllRoles {
		links := NavLinks(role)
		if len(links) == 0 {
			t.Errorf("NavLinks(%q) returned no links", role)
			continue
		}
		// the landing view is always linked first
		if links[0].To != DefaultView(role) {
			t.Errorf("NavLinks(%q)[0].To = %q; want %q", role, links[0].To, DefaultView(role))
		}
	}
	if links := NavLinks("superuser"); links != nil {
		t.Errorf("NavLinks() for unknown role = %v; want nil", links)
	}
}

func TestNavLinksCallerMutationIsLocal(t *testing.T) {
	links := NavLinks(user.RoleEmployee)
	links[0] = Link{Label: "Hijacked", To: ViewLogin}

	fresh := NavLinks(user.RoleEmployee)
	if fresh[0].To != ViewEmployeeDashboard {
		t.Errorf("NavLinks()[0].To = %q after caller mutation; want %q", fresh[0].To, ViewEmployeeDashboard)
	}
}
