package user

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestRole_AccessLevel(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want AccessLevel
	}{
		{name: "crown admin", role: RoleCrownAdmin, want: AccessCrown},
		{name: "franchisor admin", role: RoleFranchisorAdmin, want: AccessFranchisor},
		{name: "franchise admin", role: RoleFranchiseAdmin, want: AccessFranchise},
		{name: "agent", role: RoleAgent, want: AccessUser},
		{name: "user", role: RoleUser, want: AccessUser},
		{name: "unrecognized role", role: "SUPERADMIN", want: AccessUser},
		{name: "empty role", role: "", want: AccessUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.AccessLevel(); got != tt.want {
				t.Fatalf("AccessLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRole_Permissions(t *testing.T) {
	tests := []struct {
		role          Role
		manageTenants bool
		manageUsers   bool
		manageTickets bool
		viewReports   bool
	}{
		{RoleCrownAdmin, true, true, true, true},
		{RoleFranchisorAdmin, true, true, true, true},
		{RoleFranchiseAdmin, false, true, true, true},
		{RoleAgent, false, false, true, false},
		{RoleUser, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.CanManageTenants(); got != tt.manageTenants {
				t.Errorf("CanManageTenants() = %v, want %v", got, tt.manageTenants)
			}
			if got := tt.role.CanManageUsers(); got != tt.manageUsers {
				t.Errorf("CanManageUsers() = %v, want %v", got, tt.manageUsers)
			}
			if got := tt.role.CanManageTickets(); got != tt.manageTickets {
				t.Errorf("CanManageTickets() = %v, want %v", got, tt.manageTickets)
			}
			if got := tt.role.CanViewReports(); got != tt.viewReports {
				t.Errorf("CanViewReports() = %v, want %v", got, tt.viewReports)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr string
	}{
		{name: "valid", req: LoginRequest{Email: "admin@crown.com", Password: "crown123"}},
		{name: "missing email", req: LoginRequest{Password: "crown123"}, wantErr: "email is required"},
		{name: "invalid email", req: LoginRequest{Email: "bad", Password: "crown123"}, wantErr: "invalid email format"},
		{name: "missing password", req: LoginRequest{Email: "admin@crown.com"}, wantErr: "password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestDecodeToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &TokenClaims{
		UserID:     1,
		TenantID:   7,
		TenantSlug: "crown",
		Role:       RoleCrownAdmin,
		Email:      "admin@crown.com",
	})
	signed, err := token.SignedString([]byte("stub-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims, err := DecodeToken(signed)
	if err != nil {
		t.Fatalf("DecodeToken failed: %v", err)
	}
	if claims.TenantSlug != "crown" {
		t.Errorf("TenantSlug = %q, want %q", claims.TenantSlug, "crown")
	}
	if claims.UserID != 1 || claims.TenantID != 7 {
		t.Errorf("ids = (%d, %d), want (1, 7)", claims.UserID, claims.TenantID)
	}
	if claims.Role != RoleCrownAdmin {
		t.Errorf("Role = %q, want CROWN_ADMIN", claims.Role)
	}
}

func TestDecodeToken_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.!!!.c"} {
		if _, err := DecodeToken(raw); err == nil {
			t.Errorf("DecodeToken(%q) = nil error, want malformed token", raw)
		}
	}
}
