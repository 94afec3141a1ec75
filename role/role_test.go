package role

import "testing"

func TestParseWireNames(t *testing.T) {
	cases := map[string]Role{
		"admin":          Admin,
		"hr_manager":     HRManager,
		"line_manager":   LineManager,
		"employee":       Employee,
		"  Employee \n":  Employee,
		"HR_MANAGER":     HRManager,
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("Parse(%q) = %v,%v want %v,true", in, got, ok, want)
		}
	}

	for _, in := range []string{"", "root", "hr-manager", "manager", "superadmin"} {
		got, ok := Parse(in)
		if ok || got != None {
			t.Fatalf("Parse(%q) = %v,%v want None,false", in, got, ok)
		}
	}
}

func TestHomePathTable(t *testing.T) {
	if got := HomePath(Admin); got != "/admin" {
		t.Fatalf("admin home = %q", got)
	}
	if got := HomePath(HRManager); got != "/hr/dashboard" {
		t.Fatalf("hr_manager home = %q", got)
	}
	if got := HomePath(LineManager); got != "/manager/dashboard" {
		t.Fatalf("line_manager home = %q", got)
	}
	if got := HomePath(Employee); got != "/employee/dashboard" {
		t.Fatalf("employee home = %q", got)
	}
	if got := HomePath(None); got != SignInPath {
		t.Fatalf("none home = %q", got)
	}
	if got := HomePath(Role(42)); got != SignInPath {
		t.Fatalf("unknown home = %q", got)
	}
}

func TestHomePathCoversEveryRole(t *testing.T) {
	seen := map[string]Role{}
	for _, r := range All() {
		p := HomePath(r)
		if p == SignInPath {
			t.Fatalf("role %s has no home path", r)
		}
		if prev, dup := seen[p]; dup {
			t.Fatalf("roles %s and %s share home %q", prev, r, p)
		}
		seen[p] = r
	}
}

func TestSetMembership(t *testing.T) {
	s := NewSet(Admin, HRManager, None, Role(99))
	if s.Len() != 2 {
		t.Fatalf("expected 2 members, got %d (%s)", s.Len(), s)
	}
	if !s.Has(Admin) || !s.Has(HRManager) {
		t.Fatalf("missing members in %s", s)
	}
	if s.Has(Employee) || s.Has(None) || s.Has(Role(99)) {
		t.Fatalf("unexpected member in %s", s)
	}
	if got := s.String(); got != "[admin,hr_manager]" {
		t.Fatalf("String() = %q", got)
	}
	if !NewSet().Empty() || !NewSet(None).Empty() {
		t.Fatal("expected empty set")
	}
}

func TestLookupDistinguishesAbsentFromUnknown(t *testing.T) {
	cases := map[string]Role{
		"":          None,
		"   ":       None,
		"Employee":  Employee,
		"superuser": Unknown,
	}
	for in, want := range cases {
		if got := Lookup(in); got != want {
			t.Fatalf("Lookup(%q) = %v, want %v", in, got, want)
		}
	}
	if Unknown.Valid() || NewSet(Unknown).Has(Unknown) {
		t.Fatal("Unknown must never be a portal role")
	}
	if HomePath(Unknown) != SignInPath {
		t.Fatalf("HomePath(Unknown) = %q", HomePath(Unknown))
	}
}

func TestParseSetRejectsUnknownNames(t *testing.T) {
	s, rejected := ParseSet("admin", "boss", "employee")
	if !s.Has(Admin) || !s.Has(Employee) || s.Len() != 2 {
		t.Fatalf("unexpected set %s", s)
	}
	if len(rejected) != 1 || rejected[0] != "boss" {
		t.Fatalf("rejected = %v", rejected)
	}
}

func TestRoleTextRoundTrip(t *testing.T) {
	var r Role
	if err := r.UnmarshalText([]byte("line_manager")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r != LineManager {
		t.Fatalf("got %v", r)
	}
	if err := r.UnmarshalText([]byte("ceo")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r != None {
		t.Fatalf("unknown role should decode as None, got %v", r)
	}
	b, _ := Employee.MarshalText()
	if string(b) != "employee" {
		t.Fatalf("marshal = %q", b)
	}
}
