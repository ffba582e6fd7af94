package domain

import (
	"testing"
)

// FuzzParseConsumerID checks parsing never panics and that accepted IDs
// round-trip through String.
func FuzzParseConsumerID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE consumers;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseConsumerID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("parser accepted nil consumer id")
		}
		roundTrip, err := ParseConsumerID(id.String())
		if err != nil {
			t.Fatalf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round-trip changed id value")
		}
	})
}

func FuzzParseProductID(f *testing.F) {
	f.Add("RH00003")
	f.Add("   ")
	f.Add("69\x00")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProductID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("parser accepted empty product id")
		}
		again, err := ParseProductID(id.String())
		if err != nil || again != id {
			t.Fatalf("product id not stable under reparse: %q", id)
		}
	})
}
