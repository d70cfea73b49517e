package auth

import (
	"testing"
)

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{
			name:   "http 401",
			status: 401,
			body:   "",
			want:   true,
		},
		{
			name:   "http 401 with unrelated body",
			status: 401,
			body:   `{"code":0}`,
			want:   true,
		},
		{
			name:   "200 with numeric code 401",
			status: 200,
			body:   `{"code":401,"msg":"token expired"}`,
			want:   true,
		},
		{
			name:   "200 with string code 401",
			status: 200,
			body:   `{"code":"401"}`,
			want:   true,
		},
		{
			name:   "200 with status field 401",
			status: 200,
			body:   `{"status":401}`,
			want:   true,
		},
		{
			name:   "200 with error field 401",
			status: 200,
			body:   `{"error":401}`,
			want:   true,
		},
		{
			name:   "200 with code 0",
			status: 200,
			body:   `{"code":0,"data":{"list":[],"total":0}}`,
			want:   false,
		},
		{
			name:   "500 is not an auth failure",
			status: 500,
			body:   `{"code":500}`,
			want:   false,
		},
		{
			name:   "non-JSON body",
			status: 200,
			body:   "<html>401</html>",
			want:   false,
		},
		{
			name:   "empty body",
			status: 200,
			body:   "",
			want:   false,
		},
		{
			name:   "code is a different string",
			status: 200,
			body:   `{"code":"unauthorized"}`,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAuthFailure(tt.status, []byte(tt.body))
			if got != tt.want {
				t.Errorf("IsAuthFailure(%d, %q) = %v, want %v", tt.status, tt.body, got, tt.want)
			}
		})
	}
}
