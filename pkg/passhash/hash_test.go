package passhash

import (
	"strings"
	"testing"
)

// Low iteration count keeps the test fast; the KDF is the same code path.
const testIters = 1_000

func TestHashAndVerify(t *testing.T) {
	enc, err := HashPasswordWithIters("s3cret", testIters)
	if err != nil {
		t.Fatalf("HashPasswordWithIters: %v", err)
	}
	if !strings.HasPrefix(enc, "pbkdf2_sha256$") {
		t.Fatalf("unexpected encoding: %s", enc)
	}

	ok, err := VerifyPassword("s3cret", enc)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password must verify")
	}

	ok, err = VerifyPassword("wrong", enc)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, _ := HashPasswordWithIters("same", testIters)
	b, _ := HashPasswordWithIters("same", testIters)
	if a == b {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
}

func TestVerify_MalformedEncodings(t *testing.T) {
	cases := []string{
		"",
		"bcrypt$whatever",
		"pbkdf2_sha256$notanumber$c2FsdA$ZGs",
		"pbkdf2_sha256$1000$c2FsdA",
		"pbkdf2_sha256$0$c2FsdA$ZGs",
	}
	for _, in := range cases {
		if ok, err := VerifyPassword("x", in); err == nil || ok {
			t.Errorf("VerifyPassword(%q): expected error", in)
		}
	}
}
