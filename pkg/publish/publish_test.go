//go:build !integration

package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsValidate(t *testing.T) {
	complete := Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	assert.NoError(t, complete.Validate())

	tests := []struct {
		name  string
		creds Credentials
	}{
		{name: "empty", creds: Credentials{}},
		{name: "missing tenant", creds: Credentials{ClientID: "c", ClientSecret: "s"}},
		{name: "missing client ID", creds: Credentials{TenantID: "t", ClientSecret: "s"}},
		{name: "missing secret", creds: Credentials{TenantID: "t", ClientID: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.creds.Validate())
		})
	}
}

func TestNewPublisher(t *testing.T) {
	creds := Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}

	p, err := NewPublisher(creds, "prod-123")
	require.NoError(t, err)
	assert.Equal(t, "prod-123", p.ProductID)
	assert.NotNil(t, p.http)

	_, err = NewPublisher(creds, "")
	assert.ErrorContains(t, err, "product ID")

	_, err = NewPublisher(Credentials{}, "prod-123")
	assert.ErrorContains(t, err, "credentials incomplete")
}
