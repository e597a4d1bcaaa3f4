package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taqyimhq/taqyim/core/access"
	"github.com/taqyimhq/taqyim/core/center"
	"github.com/taqyimhq/taqyim/core/user"
)

func Test_centerApi(t *testing.T) {
	admin := createUser(t, "Cen Admin", "cen.admin@test.test", "Str0ng!pwd", user.RoleAdmin, "", true)
	employee := createUser(t, "Cen Emp", "cen.emp@test.test", "Str0ng!pwd", user.RoleEmployee, "", true)

	cen := createCenter(t, "Cen North", "North")

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/centers",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "any role may browse", method: http.MethodGet,
			path: "/v1/centers?search=Cen+North", token: getToken(t, employee),
			wantCode: http.StatusOK, wantData: marchallList(t, cen),
		},
		{
			name: "retrieve", method: http.MethodGet,
			path: "/v1/centers/" + cen.ID, token: getToken(t, employee),
			wantCode: http.StatusOK, wantData: marchallObj(t, cen),
		},
		{
			name: "retrieve unknown", method: http.MethodGet,
			path: "/v1/centers/5f0c2a1e-0000-4000-8000-00000000dead", token: getToken(t, employee),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "center not found"}),
		},
		{
			name: "create is admin only", method: http.MethodPost,
			path: "/v1/centers", token: getToken(t, employee),
			body:     []byte(`{"name": "Cen South"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, echo.Map{"error": "permission denied", "redirect": access.ViewEmployeeDashboard}),
		},
		{
			name: "create requires a name", method: http.MethodPost,
			path: "/v1/centers", token: getToken(t, admin),
			body:     []byte(`{"region": "South"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"name": "this field is required"}),
		},
		{
			name: "create", method: http.MethodPost,
			path: "/v1/centers", token: getToken(t, admin),
			body:     []byte(`{"name": "Cen South", "region": "South"}`),
			wantCode: http.StatusCreated,
		},
		{
			name: "update is admin only", method: http.MethodPut,
			path: "/v1/centers/" + cen.ID, token: getToken(t, employee),
			body:     []byte(`{"name": "Hijacked"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, echo.Map{"error": "permission denied", "redirect": access.ViewEmployeeDashboard}),
		},
		{
			name: "update", method: http.MethodPut,
			path: "/v1/centers/" + cen.ID, token: getToken(t, admin),
			body:     []byte(`{"name": "Cen North Renamed", "is_active": false}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d; wantCode %d; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var got center.Center
			decodeBody(t, rec, &got)
			switch tt.method {
			case http.MethodPost:
				if got.Name != "Cen South" || got.Region != "South" {
					t.Errorf("created center = %+v", got)
				}
				if got.IsActive == nil || !*got.IsActive {
					t.Error("created center is not active")
				}
			case http.MethodPut:
				if got.Name != "Cen North Renamed" {
					t.Errorf("updated name = %q", got.Name)
				}
				if got.IsActive == nil || *got.IsActive {
					t.Error("center was not deactivated")
				}
			}
		})
	}
}
