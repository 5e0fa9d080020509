package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/inspections":              "/inspections",
		"/inspections/42":           "/inspections/{id}",
		"/inspections/42/status":    "/inspections/{id}/status",
		"/upload/photo/7":           "/upload/photo/{id}",
		"/inspections/42/duplicate": "/inspections/{id}/duplicate",
		"/a/1/2":                    "/a/{id}/{id}",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
