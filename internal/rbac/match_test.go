package rbac

import "testing"

func TestMatchPatternWildcard(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		grantID string
		want    bool
	}{
		{"prefix wildcard matches", "users:*", "users:list", true},
		{"prefix wildcard matches edit", "users:*", "users:edit", true},
		{"empty suffix matches", "users:*", "users:", true},
		{"different resource rejected", "users:*", "admin:list", false},
		{"lone wildcard matches anything", "*", "users:list", true},
		{"lone wildcard matches plain id", "*", "backoffice", true},
		{"wildcard crosses separators", "users:*", "users:roles:list", true},
		{"interior wildcard", "users:*:export", "users:report:export", true},
		{"interior wildcard zero width", "users:*:export", "users::export", true},
		{"interior wildcard rejected", "users:*:export", "users:report:import", false},
		{"exact id matches itself", "users:list", "users:list", true},
		{"exact id no partial match", "users:list", "users:listing", false},
		{"exact id no substring match", "sers:lis", "users:list", false},
		{"case sensitive", "Users:*", "users:list", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchPattern(tc.pattern, tc.grantID); got != tc.want {
				t.Fatalf("MatchPattern(%q, %q) = %v, want %v", tc.pattern, tc.grantID, got, tc.want)
			}
		})
	}
}

func TestMatchPatternCacheReuse(t *testing.T) {
	// Same pattern evaluated twice must yield identical results through the
	// compiled-pattern cache.
	for i := 0; i < 2; i++ {
		if !MatchPattern("reports:*:view", "reports:q3:view") {
			t.Fatalf("iteration %d: expected match", i)
		}
		if MatchPattern("reports:*:view", "reports:q3:edit") {
			t.Fatalf("iteration %d: expected no match", i)
		}
	}
}

func TestValidIdentifiers(t *testing.T) {
	if !ValidRoleID("backoffice-admin") {
		t.Fatal("hyphenated role id should be valid")
	}
	if ValidRoleID("back:office") {
		t.Fatal("colon is not allowed in role ids")
	}
	if ValidRoleID("") {
		t.Fatal("empty role id should be invalid")
	}
	if !ValidGrantID("users:list") {
		t.Fatal("namespaced grant id should be valid")
	}
	if ValidGrantID("users:*") {
		t.Fatal("wildcard is not a valid stored grant id")
	}
}
