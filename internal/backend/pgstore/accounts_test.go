package pgstore

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountsDummyHashMatchesRealCost(t *testing.T) {
	a := NewAccounts(nil, nil, zap.NewNop())
	a.bcryptCost = bcrypt.MinCost + 1

	hash := a.dummyHash()
	cost, err := bcrypt.Cost(hash)
	if err != nil {
		t.Fatalf("dummy hash is not a bcrypt hash: %v", err)
	}
	if cost != a.bcryptCost {
		t.Fatalf("expected cost %d, got %d", a.bcryptCost, cost)
	}
	if !bytes.Equal(hash, a.dummyHash()) {
		t.Fatalf("expected the dummy hash to be computed once")
	}
	for _, password := range []string{"", "password123", "folio"} {
		if bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil {
			t.Fatalf("dummy hash must not match %q", password)
		}
	}
}
