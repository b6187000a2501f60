// Package intern implements canonical string interning: pointer-identical
// handles for equal byte content, backed by a closed-addressing hash set
// with djb2 hashing and 50%-occupancy resizing, per spec.md §4.2.
package intern

import "fmt"

// String is an interned, immutable byte sequence. Equality between two
// Strings produced by the same Pool is pointer equality — compare with ==
// on the *String handle, never by dereferencing and comparing bytes.
type String struct {
	bytes string
}

// Bytes returns the interned content.
func (s *String) Bytes() string { return s.bytes }

func (s *String) String() string { return s.bytes }

// Pool owns the canonical set of interned strings.
type Pool struct {
	buckets []*bucket
	count   int
}

type bucket struct {
	entries []*String
}

// NewPool returns an empty interning pool.
func NewPool() *Pool {
	p := &Pool{}
	p.buckets = make([]*bucket, 16)
	return p
}

func djb2(s string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return h
}

// Intern returns the canonical handle for s, interning it if this is the
// first time this content has been seen.
func (p *Pool) Intern(s string) *String {
	idx := djb2(s) % uint64(len(p.buckets))
	b := p.buckets[idx]
	if b == nil {
		b = &bucket{}
		p.buckets[idx] = b
	}
	for _, e := range b.entries {
		if e.bytes == s {
			return e
		}
	}

	// Copy to detach from any caller-owned backing array.
	owned := string(append([]byte(nil), s...))
	handle := &String{bytes: owned}
	b.entries = append(b.entries, handle)
	p.count++

	if p.count*2 >= len(p.buckets) {
		p.resize()
	}
	return handle
}

// InternBytes interns a byte slice.
func (p *Pool) InternBytes(b []byte) *String {
	return p.Intern(string(b))
}

// Fmt formats via fmt.Sprintf and interns the result.
func (p *Pool) Fmt(format string, args ...any) *String {
	return p.Intern(fmt.Sprintf(format, args...))
}

func (p *Pool) resize() {
	old := p.buckets
	p.buckets = make([]*bucket, len(old)*2)
	p.count = 0
	for _, b := range old {
		if b == nil {
			continue
		}
		for _, e := range b.entries {
			idx := djb2(e.bytes) % uint64(len(p.buckets))
			nb := p.buckets[idx]
			if nb == nil {
				nb = &bucket{}
				p.buckets[idx] = nb
			}
			nb.entries = append(nb.entries, e)
			p.count++
		}
	}
}

// Len returns the number of distinct strings currently interned.
func (p *Pool) Len() int { return p.count }
