package signals

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	wordBits = int(unsafe.Sizeof(unix.Sigset_t{}.Val[0]) * 8)
	// kernelNSIG is the number of signals the kernel's sigset_t carries.
	kernelNSIG = 64
)

// Set is a kernel signal set.
type Set struct {
	val unix.Sigset_t
}

// Add puts sig in the set. Like sigaddset(3) it rejects numbers the kernel
// cannot represent with EINVAL.
func (s *Set) Add(sig Signal) error {
	if sig < 1 || sig > kernelNSIG {
		return NewSyscallError("sigaddset", unix.EINVAL)
	}
	n := int(sig) - 1
	s.val.Val[n/wordBits] |= 1 << (uint(n) % uint(wordBits))
	return nil
}

// Has reports whether sig is a member.
func (s *Set) Has(sig Signal) bool {
	if sig < 1 || sig > kernelNSIG {
		return false
	}
	n := int(sig) - 1
	return s.val.Val[n/wordBits]&(1<<(uint(n)%uint(wordBits))) != 0
}

func (s *Set) del(sig Signal) {
	if sig < 1 || sig > kernelNSIG {
		return
	}
	n := int(sig) - 1
	s.val.Val[n/wordBits] &^= 1 << (uint(n) % uint(wordBits))
}

// Union adds every member of o to s.
func (s *Set) Union(o Set) {
	for i := range s.val.Val {
		s.val.Val[i] |= o.val.Val[i]
	}
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool {
	for _, w := range s.val.Val {
		if w != 0 {
			return false
		}
	}
	return true
}

// Members lists the set in ascending order.
func (s *Set) Members() []Signal {
	var out []Signal
	for sig := Signal(1); sig <= kernelNSIG; sig++ {
		if s.Has(sig) {
			out = append(out, sig)
		}
	}
	return out
}

// Sigset returns the raw kernel representation.
func (s *Set) Sigset() unix.Sigset_t {
	return s.val
}

// setOf resolves ids into a fresh Set.
func setOf(ids []ID) (Set, error) {
	var set Set
	for _, id := range ids {
		sig, err := Resolve(id)
		if err != nil {
			return Set{}, err
		}
		if err := set.Add(sig); err != nil {
			return Set{}, err
		}
	}
	return set, nil
}
