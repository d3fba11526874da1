// Package ops defines the tagged operation records produced by the
// input parser and consumed one at a time by the transaction manager.
package ops

import "fmt"

// Kind identifies the instruction a line in the input script encodes.
type Kind int

const (
	Begin Kind = iota
	BeginRO
	End
	Read
	Write
	Fail
	Recover
	Dump
)

func (k Kind) String() string {
	switch k {
	case Begin:
		return "begin"
	case BeginRO:
		return "beginRO"
	case End:
		return "end"
	case Read:
		return "R"
	case Write:
		return "W"
	case Fail:
		return "fail"
	case Recover:
		return "recover"
	case Dump:
		return "dump"
	default:
		return "unknown"
	}
}

// Op is the immutable per-operation value carrier handed from the
// parser to the transaction manager (spec §3, "Transaction record").
// Not every field is meaningful for every Kind: Txn is set for
// Begin/BeginRO/End/Read/Write, Site for Fail/Recover, Var for
// Read/Write, Value for Write.
type Op struct {
	Kind  Kind
	Txn   int
	Site  int
	Var   int
	Value int
	Line  int // 1-indexed source line, for error messages
}

func (o Op) String() string {
	switch o.Kind {
	case Begin:
		return fmt.Sprintf("begin(T%d)", o.Txn)
	case BeginRO:
		return fmt.Sprintf("beginRO(T%d)", o.Txn)
	case End:
		return fmt.Sprintf("end(T%d)", o.Txn)
	case Read:
		return fmt.Sprintf("R(T%d,x%d)", o.Txn, o.Var)
	case Write:
		return fmt.Sprintf("W(T%d,x%d,%d)", o.Txn, o.Var, o.Value)
	case Fail:
		return fmt.Sprintf("fail(%d)", o.Site)
	case Recover:
		return fmt.Sprintf("recover(%d)", o.Site)
	case Dump:
		return "dump()"
	default:
		return "?"
	}
}
