package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", false},
		{"surrounding space", "  Bearer abc.def.ghi  ", "abc.def.ghi", false},
		{"empty header", "", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
		{"scheme only", "Bearer ", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got token %q", tc.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: token = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, path := range []string{"/v1/auth/login", "/v1/auth/register", "/healthz", "/metrics"} {
		if !isPublicPath(path) {
			t.Errorf("expected %s to be public", path)
		}
	}
	for _, path := range []string{"/v1/auth/me", "/v1/admin"} {
		if isPublicPath(path) {
			t.Errorf("expected %s to require a bearer token", path)
		}
	}
}
