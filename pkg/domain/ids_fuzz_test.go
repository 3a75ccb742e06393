package domain

import "testing"

// FuzzParseAddress checks that parsing never panics and that accepted
// addresses are already in normalized form.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("0xABCDEFabcdef0123456789ABCDEF0123456789ab")
	f.Add("0x")
	f.Add("'; DROP TABLE stakes;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(addr.String())
		if err != nil {
			t.Fatalf("normalized address failed to parse: %v", err)
		}
		if again != addr {
			t.Fatalf("normalization not idempotent: %q != %q", again, addr)
		}
	})
}
