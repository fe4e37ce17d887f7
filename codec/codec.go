// Package codec implements the fixed little-endian account layout shared
// with every deployed instance of the program. Layouts are explicit
// struct-of-fields encodings: a fixed-width discriminator prefix, fixed-width
// primitives, u32-length-prefixed sequences, and presence-byte options.
// Offsets are pinned by tests and must never drift.
package codec

import (
	"crypto/sha256"
)

// DiscriminatorLength is the byte length of every account and event type tag.
const DiscriminatorLength = 8

// Discriminator is the fixed-width type tag prefixing an account or event.
type Discriminator [DiscriminatorLength]byte

// AccountDiscriminator derives the type tag for a persistent account kind.
func AccountDiscriminator(name string) Discriminator {
	return namespaceDiscriminator("account", name)
}

// EventDiscriminator derives the header for an emitted event kind.
func EventDiscriminator(name string) Discriminator {
	return namespaceDiscriminator("event", name)
}

func namespaceDiscriminator(namespace, name string) Discriminator {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], h[:DiscriminatorLength])
	return d
}
