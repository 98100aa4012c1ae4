package model

import "testing"

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"0xAbCd":    "0xabcd",
		" 0xAA ":    "0xaa",
		"":          "",
		"  \t":      "",
		"anonymous": "anonymous",
	}
	for in, want := range cases {
		if got := NormalizeAddress(in); got != want {
			t.Errorf("NormalizeAddress(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestPubliclyAccessible(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		rec  FileRecord
		want bool
	}{
		{"public type", FileRecord{AccessType: AccessPublic}, true},
		{"private type", FileRecord{AccessType: AccessPrivate}, false},
		{"private with flag", FileRecord{AccessType: AccessPrivate, IsPublic: true}, true},
		{"role-based", FileRecord{AccessType: AccessRoleBased, AllowedRoles: []string{"X"}}, false},
		{"role-based with flag", FileRecord{AccessType: AccessRoleBased, IsPublic: true, AllowedRoles: []string{"X"}}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.rec.PubliclyAccessible(); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAccessTypeValid(t *testing.T) {
	t.Parallel()
	for _, v := range []AccessType{AccessPublic, AccessPrivate, AccessRoleBased} {
		if !v.Valid() {
			t.Errorf("%q must be valid", v)
		}
	}
	for _, v := range []AccessType{"", "restricted", "PUBLIC"} {
		if v.Valid() {
			t.Errorf("%q must be invalid", v)
		}
	}
}
