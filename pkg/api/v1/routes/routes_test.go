package routes

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"health", HealthCheckURL(), "/health"},
		{"rpc", RPCURL(), "/api/v1"},
		{"job", GetJobURL(12), "/api/v1/jobs/12"},
		{"job events", GetJobEventsURL(3, url.Values{"start": {"2"}}), "/api/v1/jobs/3/events?start=2"},
		{"user", GetUserURL("0xab"), "/api/v1/users/0xab"},
		{"unknown route", BuildURL("Nope", nil, nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
