package sheetapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsFindByEmail(t *testing.T) {
	perms := Permissions{
		{UserType: UserTypeUser, Email: "Asha@Example.com", Name: "Asha"},
		{UserType: UserTypeAdmin, Email: "boss@example.com", Name: "Boss"},
	}

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"exact", "boss@example.com", "Boss"},
		{"case insensitive", "asha@example.com", "Asha"},
		{"whitespace", "  ASHA@EXAMPLE.COM ", "Asha"},
		{"missing", "ghost@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perms.FindByEmail(tt.email)
			if tt.want == "" {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.Name)
		})
	}
}

func TestPermissionsMaintenanceStatus(t *testing.T) {
	tests := []struct {
		name  string
		perms Permissions
		want  string
	}{
		{
			"sentinel on",
			Permissions{{UserType: UserTypeMaintenance, Email: "status", Name: "ON"}},
			MaintenanceOn,
		},
		{
			"sentinel off",
			Permissions{{UserType: UserTypeMaintenance, Email: "status", Name: "OFF"}},
			MaintenanceOff,
		},
		{
			"sentinel garbage name",
			Permissions{{UserType: UserTypeMaintenance, Email: "status", Name: "maybe"}},
			MaintenanceOff,
		},
		{
			"no sentinel",
			Permissions{{UserType: UserTypeUser, Email: "a@x.com", Name: "Asha"}},
			MaintenanceOff,
		},
		{"empty list", Permissions{}, MaintenanceOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.perms.MaintenanceStatus())
		})
	}
}

func TestPermissionsUserEmails(t *testing.T) {
	perms := Permissions{
		{UserType: UserTypeUser, Email: "zoe@x.com", Name: "Zoe"},
		{UserType: UserTypeAdmin, Email: "boss@x.com", Name: "Boss"},
		{UserType: UserTypeUser, Email: "asha@x.com", Name: "Asha"},
		{UserType: UserTypeMaintenance, Email: "status", Name: "OFF"},
		{UserType: UserTypeUser, Email: "", Name: "Nameless"},
	}

	assert.Equal(t, []string{"asha@x.com", "zoe@x.com"}, perms.UserEmails())
}
