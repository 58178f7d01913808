package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solutions-liquify/tms/internal/shared"
)

func TestService_EffectivePermissions(t *testing.T) {
	svc := NewService()

	assert.True(t, svc.Can(shared.RoleAdmin, shared.PermEmployeesEdit))
	assert.True(t, svc.Can(shared.RoleAdmin, shared.PermMasterDataLifecycle))

	assert.True(t, svc.Can(shared.RoleStaff, shared.PermDeliveryChallanEdit))
	assert.True(t, svc.Can(shared.RoleStaff, shared.PermEmployeesView))
	assert.False(t, svc.Can(shared.RoleStaff, shared.PermEmployeesEdit))
	assert.False(t, svc.Can(shared.RoleStaff, shared.PermMasterDataLifecycle))
	assert.False(t, svc.Can(shared.RoleStaff, shared.PermDeliveryOrderCancel))

	assert.Empty(t, svc.EffectivePermissions("GUEST"))
	assert.Equal(t, []string{shared.RoleAdmin, shared.RoleStaff}, svc.Roles())
}

func TestMiddleware_Require(t *testing.T) {
	mw := Middleware{Service: NewService()}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name      string
		principal *shared.Principal
		handler   http.Handler
		want      int
	}{
		{name: "anonymous", handler: mw.RequireAny(shared.PermMasterDataView)(ok), want: http.StatusUnauthorized},
		{name: "staff allowed", principal: &shared.Principal{EmployeeID: "e1", Role: shared.RoleStaff}, handler: mw.RequireAny(shared.PermMasterDataView)(ok), want: http.StatusNoContent},
		{name: "staff denied", principal: &shared.Principal{EmployeeID: "e1", Role: shared.RoleStaff}, handler: mw.RequireAll(shared.PermMasterDataView, shared.PermEmployeesEdit)(ok), want: http.StatusForbidden},
		{name: "admin all", principal: &shared.Principal{EmployeeID: "e2", Role: shared.RoleAdmin}, handler: mw.RequireAll(shared.PermMasterDataView, shared.PermEmployeesEdit)(ok), want: http.StatusNoContent},
		{name: "no permissions required", handler: mw.RequireAny()(ok), want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
