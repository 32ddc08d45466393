package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	h := HashPassword("s3cret!")
	if h == "" || h == "s3cret!" {
		t.Fatalf("hash looks wrong: %q", h)
	}
	if !CheckPassword("s3cret!", h) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("wrong", h) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	if HashPassword("same") == HashPassword("same") {
		t.Fatal("two hashes of the same password should differ")
	}
}
