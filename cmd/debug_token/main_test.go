package main

import (
	"testing"

	"github.com/mwork/socialgraph/internal/domain/contactgraph"
)

func TestContactHashes(t *testing.T) {
	hashes, err := contactHashes("+7 701 555 01 02, ,77015550103")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(hashes))
	}
	if hashes[0] != contactgraph.HashPhoneNumber("77015550102") {
		t.Fatalf("formatting changed the hash: %s", hashes[0])
	}
	if hashes[0] == hashes[1] {
		t.Fatal("distinct numbers hashed equal")
	}
}

func TestContactHashesRejectsNonNumeric(t *testing.T) {
	if _, err := contactHashes("77015550102,n/a"); err == nil {
		t.Fatal("expected error for number without digits")
	}
}
