package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		wantErr bool
	}{
		{
			name:    "postgres with dsn",
			profile: &Profile{Mode: "dev", Driver: "postgres", DSN: "postgres://localhost/knot"},
			wantErr: false,
		},
		{
			name:    "postgres without dsn",
			profile: &Profile{Mode: "dev", Driver: "postgres"},
			wantErr: true,
		},
		{
			name:    "unsupported driver",
			profile: &Profile{Mode: "dev", Driver: "mysql", DSN: "whatever"},
			wantErr: true,
		},
		{
			name:    "sqlite with explicit dsn",
			profile: &Profile{Mode: "dev", Driver: "sqlite", DSN: "/tmp/knot.db"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestProfileValidate_NormalizesMode(t *testing.T) {
	p := &Profile{Mode: "bogus", Driver: "postgres", DSN: "postgres://localhost/knot"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}

func TestProfileValidate_DefaultsWorkerSettings(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", DSN: "postgres://localhost/knot"}
	require.NoError(t, p.Validate())
	assert.Equal(t, 60, p.TickInterval)
	assert.Equal(t, 4, p.DeliveryWorkers)
}
