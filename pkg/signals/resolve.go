package signals

import (
	"fmt"
	"strconv"
	"strings"
)

type idKind uint8

const (
	kindNum idKind = iota
	kindSym
	kindName
)

// ID identifies a signal the way a caller supplied it: as a number, a
// symbolic token or a string name. Build one with Num, Sym or Name.
type ID struct {
	kind idKind
	num  int
	name string
}

// Num identifies a signal by number.
func Num(n int) ID { return ID{kind: kindNum, num: n} }

// Sym identifies a signal by a symbolic token such as "INT" or "RT3".
func Sym(s string) ID { return ID{kind: kindSym, name: s} }

// Name identifies a signal by a string such as "SIGTERM".
func Name(s string) ID { return ID{kind: kindName, name: s} }

func (id ID) String() string {
	if id.kind == kindNum {
		return strconv.Itoa(id.num)
	}
	return id.name
}

// IDs converts signal numbers into identifiers.
func IDs(sigs ...Signal) []ID {
	ids := make([]ID, len(sigs))
	for i, s := range sigs {
		ids[i] = Num(int(s))
	}
	return ids
}

// Parse turns textual input (flags, config files) into an identifier.
// Decimal text becomes a number, anything else a name.
func Parse(s string) ID {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Num(n)
	}
	return Name(strings.ToUpper(s))
}

// Resolve maps an identifier to its signal number.
//
// Numbers must satisfy 0 <= n < SIGRTMAX. Names may carry a "SIG" prefix;
// "RT0" is SIGRTMIN and "RT<k>" is SIGRTMIN+k as long as it does not pass
// SIGRTMAX. "EXIT" resolves to 0. Any other name is unsupported.
func Resolve(id ID) (Signal, error) {
	switch id.kind {
	case kindNum:
		if id.num < 0 || Signal(id.num) >= SIGRTMAX {
			return 0, fmt.Errorf("%w: number %d", ErrInvalidSignal, id.num)
		}
		return Signal(id.num), nil
	case kindSym:
		if id.name == "" {
			return 0, fmt.Errorf("%w: bad signal", ErrInvalidSignal)
		}
	}

	name := strings.TrimPrefix(id.name, "SIG")
	sig := lookupName(name)
	if sig == 0 && name != "EXIT" {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSignal, id.name)
	}
	return sig, nil
}

// ResolveAll resolves every identifier, stopping at the first failure.
func ResolveAll(ids []ID) ([]Signal, error) {
	sigs := make([]Signal, 0, len(ids))
	for _, id := range ids {
		sig, err := Resolve(id)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// lookupName returns 0 for names it does not know.
func lookupName(name string) Signal {
	if sig, ok := nameTable[name]; ok {
		return sig
	}
	// RT0 is special cased: the digit path below rejects a zero offset.
	if name == "RT0" {
		return SIGRTMIN
	}
	digits, ok := strings.CutPrefix(name, "RT")
	if !ok || digits == "" {
		return 0
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0
		}
	}
	k, err := strconv.Atoi(digits)
	if err != nil || k == 0 || k > int(SIGRTMAX-SIGRTMIN) {
		return 0
	}
	return SIGRTMIN + Signal(k)
}
