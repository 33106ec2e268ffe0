// Key derivation for column entries.
//
// A column resolves every caller-supplied input to a 32-byte Key
// before touching an index or value table (§3). Two policies are
// supported, selected by Options.Uniform.
package column

import (
	"golang.org/x/crypto/blake2b"
)

// HashKey resolves input to this column's Key. Uniform columns take
// the first 32 bytes of input verbatim (the caller guarantees it is
// already a good hash); otherwise input is BLAKE2b-256 hashed, keyed
// by the column's salt when one is configured.
func (c *Column) HashKey(input []byte) Key {
	if c.opts.Uniform {
		var k Key
		copy(k[:], input)
		return k
	}

	var salt []byte
	if c.opts.Salt != ([32]byte{}) {
		s := c.opts.Salt
		salt = s[:]
	}
	h, _ := blake2b.New256(salt) // salt of any length <= 64 is valid for New256
	h.Write(input)

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}
