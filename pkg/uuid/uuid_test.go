package uuid

import "testing"

func TestNew_VersionAndVariant(t *testing.T) {
	u, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if u[6]>>4 != 4 {
		t.Fatalf("expected version 4, got %d", u[6]>>4)
	}
	if u[8]>>6 != 2 {
		t.Fatalf("expected RFC 4122 variant, got %b", u[8]>>6)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	u := MustNew()
	parsed, err := Parse(u.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", u.String(), err)
	}
	if parsed != u {
		t.Fatalf("round trip mismatch: %s vs %s", parsed, u)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"not-a-uuid",
		"123e4567-e89b-12d3-a456",                      // too few groups
		"123e4567-e89b-12d3-a456-42661417400",          // short
		"zzze4567-e89b-12d3-a456-426614174000",         // non-hex
		"123e4567e89b12d3a456426614174000-extra-stuff", // wrong shape
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !Nil.IsZero() {
		t.Fatal("Nil must be zero")
	}
	if MustNew().IsZero() {
		t.Fatal("random uuid must not be zero")
	}
}
