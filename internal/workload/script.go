package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/kcore/internal/logger"
	"github.com/joshuapare/kcore/kern/alloc"
)

var (
	// ErrSyntax indicates a malformed script line.
	ErrSyntax = errors.New("workload: syntax error")

	// ErrUnknownID indicates a free of a name that holds no block.
	ErrUnknownID = errors.New("workload: unknown block id")

	// ErrIDInUse indicates an alloc into a name that already holds a block.
	ErrIDInUse = errors.New("workload: block id in use")
)

// OpKind is a script instruction.
type OpKind uint8

const (
	OpAlloc OpKind = iota
	OpFree
	OpRealloc
	OpDump
	OpCheck
)

var opWords = [...]string{
	OpAlloc:   "alloc",
	OpFree:    "free",
	OpRealloc: "realloc",
	OpDump:    "dump",
	OpCheck:   "check",
}

// opArity is the field count of each instruction, including the keyword.
var opArity = [...]int{
	OpAlloc:   3,
	OpFree:    2,
	OpRealloc: 3,
	OpDump:    1,
	OpCheck:   1,
}

func (k OpKind) String() string {
	if int(k) < len(opWords) {
		return opWords[k]
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

func lookupOp(word string) (OpKind, bool) {
	for k, w := range opWords {
		if strings.EqualFold(w, word) {
			return OpKind(k), true
		}
	}
	return 0, false
}

// Op is one parsed script line.
type Op struct {
	Kind OpKind
	ID   string
	Size uint32
	Line int
}

// Script is a parsed allocation script.
//
// Syntax, one instruction per line, '#' starts a comment:
//
//	alloc   <id> <size>
//	free    <id>
//	realloc <id> <size>
//	dump
//	check
type Script struct {
	Ops []Op
}

// ParseScript reads a script from r.
func ParseScript(r io.Reader) (*Script, error) {
	s := &Script{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		op, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		op.Line = line
		s.Ops = append(s.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return s, nil
}

func parseOp(fields []string) (Op, error) {
	kind, ok := lookupOp(fields[0])
	if !ok {
		return Op{}, fmt.Errorf("%w: unknown instruction %q", ErrSyntax, fields[0])
	}

	want := opArity[kind]
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrSyntax, fields[0], want-1, len(fields)-1)
	}

	op := Op{Kind: kind}
	if want >= 2 {
		op.ID = fields[1]
	}
	if want == 3 {
		n, err := strconv.ParseUint(fields[2], 0, 32)
		if err != nil {
			return Op{}, fmt.Errorf("%w: size %q: %w", ErrSyntax, fields[2], err)
		}
		op.Size = uint32(n)
	}
	return op, nil
}

// ScriptOptions tunes RunScript.
type ScriptOptions struct {
	// Verify runs the invariant checker after every mutating instruction.
	Verify bool

	// Out receives dump output. Nil discards it.
	Out io.Writer
}

// RunScript executes s against a with a's configured strategy. Allocation
// failures (ErrNoSpace) are counted and the script continues; any other error
// stops it.
func RunScript(s *Script, a *alloc.Allocator, opts *ScriptOptions) (*Report, error) {
	if opts == nil {
		opts = &ScriptOptions{}
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	ids := make(map[string]alloc.Addr)
	r := &Report{}
	for _, op := range s.Ops {
		r.Ops++
		mutated, err := step(a, ids, op, out)
		switch {
		case errors.Is(err, alloc.ErrNoSpace):
			r.Failures++
			logger.Warn("script allocation failed", "line", op.Line, "op", op.Kind.String(), "id", op.ID, "size", op.Size)
		case err != nil:
			return r, fmt.Errorf("line %d: %s %s: %w", op.Line, op.Kind, op.ID, err)
		}
		if mutated && opts.Verify {
			if err := a.Check(); err != nil {
				return r, fmt.Errorf("line %d: after %s %s: %w", op.Line, op.Kind, op.ID, err)
			}
		}
	}

	summarize(r, a, len(ids))
	r.Blocks = a.Blocks()
	return r, nil
}

func step(a *alloc.Allocator, ids map[string]alloc.Addr, op Op, out io.Writer) (bool, error) {
	switch op.Kind {
	case OpAlloc:
		if _, ok := ids[op.ID]; ok {
			return false, ErrIDInUse
		}
		addr, _, err := a.Alloc(op.Size)
		if err != nil {
			return true, err
		}
		ids[op.ID] = addr
		return true, nil

	case OpFree:
		addr, ok := ids[op.ID]
		if !ok {
			return false, ErrUnknownID
		}
		delete(ids, op.ID)
		return true, a.Free(addr)

	case OpRealloc:
		addr, err := realloc(a, ids[op.ID], op.Size)
		if err != nil {
			return true, err
		}
		if addr == alloc.Null {
			delete(ids, op.ID)
		} else {
			ids[op.ID] = addr
		}
		return true, nil

	case OpDump:
		return false, a.Dump(out)

	case OpCheck:
		return false, a.Check()
	}
	return false, fmt.Errorf("%w: %v", ErrSyntax, op.Kind)
}

func realloc(h alloc.Heap, addr alloc.Addr, size uint32) (alloc.Addr, error) {
	got, _, err := h.Realloc(addr, size)
	return got, err
}
