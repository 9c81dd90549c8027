package meta

import "fmt"

// OpCode identifies an instruction. Only the opcodes the relinker needs to
// tell apart are named; everything else round-trips as OpOther.
type OpCode uint16

const (
	OpNop OpCode = iota
	OpRet
	OpPop
	OpLdarg
	OpLdloc
	OpStloc
	OpLdcI4
	OpLdstr
	OpCall
	OpCallvirt
	OpNewobj
	OpLdfld
	OpLdflda
	OpStfld
	OpLdsfld
	OpStsfld
	OpLdtoken
	OpBox
	OpUnbox
	OpNewarr
	OpCastclass
	OpIsinst
	OpInitobj
	OpLdelema
	OpBr
	OpOther
)

var opNames = [...]string{
	OpNop:       "nop",
	OpRet:       "ret",
	OpPop:       "pop",
	OpLdarg:     "ldarg",
	OpLdloc:     "ldloc",
	OpStloc:     "stloc",
	OpLdcI4:     "ldc.i4",
	OpLdstr:     "ldstr",
	OpCall:      "call",
	OpCallvirt:  "callvirt",
	OpNewobj:    "newobj",
	OpLdfld:     "ldfld",
	OpLdflda:    "ldflda",
	OpStfld:     "stfld",
	OpLdsfld:    "ldsfld",
	OpStsfld:    "stsfld",
	OpLdtoken:   "ldtoken",
	OpBox:       "box",
	OpUnbox:     "unbox",
	OpNewarr:    "newarr",
	OpCastclass: "castclass",
	OpIsinst:    "isinst",
	OpInitobj:   "initobj",
	OpLdelema:   "ldelema",
	OpBr:        "br",
	OpOther:     "other",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", uint16(op))
}

// Operand is the tagged union of instruction operands:
// TypeOperand, MethodOperand, FieldOperand, StringOperand or OtherOperand.
// A nil Operand means the instruction takes none.
type Operand interface {
	isOperand()
}

// TypeOperand carries a type token (box, newarr, ldtoken, castclass ...).
type TypeOperand struct{ Type *TypeRef }

// MethodOperand carries a method token (call, callvirt, newobj ...).
type MethodOperand struct{ Method *MethodRef }

// FieldOperand carries a field token (ldfld, stfld ...).
type FieldOperand struct{ Field *FieldRef }

// StringOperand carries a string literal (ldstr).
type StringOperand struct{ Value string }

// OtherOperand carries any opaque immediate (constants, branch targets, slots).
type OtherOperand struct{ Value int64 }

func (TypeOperand) isOperand()   {}
func (MethodOperand) isOperand() {}
func (FieldOperand) isOperand()  {}
func (StringOperand) isOperand() {}
func (OtherOperand) isOperand()  {}

// Instruction is an opcode plus its operand.
type Instruction struct {
	Offset  int
	OpCode  OpCode
	Operand Operand
}

func (ins *Instruction) String() string {
	label := fmt.Sprintf("IL_%04x: %s", ins.Offset, ins.OpCode)
	switch op := ins.Operand.(type) {
	case nil:
		return label
	case TypeOperand:
		return label + " " + op.Type.FullName()
	case MethodOperand:
		return label + " " + op.Method.FullName()
	case FieldOperand:
		return label + " " + op.Field.FullName()
	case StringOperand:
		return fmt.Sprintf("%s %q", label, op.Value)
	case OtherOperand:
		return fmt.Sprintf("%s %d", label, op.Value)
	default:
		panic(fmt.Sprintf("meta: unexpected operand %T", op))
	}
}

// Body is the instruction stream and local variable table of a method.
type Body struct {
	Locals       []*TypeRef
	Instructions []*Instruction
}

// Append adds an instruction at the end; the offset follows the previous one.
func (b *Body) Append(op OpCode, operand Operand) *Instruction {
	ins := &Instruction{OpCode: op, Operand: operand}
	if n := len(b.Instructions); n > 0 {
		ins.Offset = b.Instructions[n-1].Offset + 1
	}
	b.Instructions = append(b.Instructions, ins)
	return ins
}

// InsertAfter inserts ins right after position idx. The new instruction
// shares the offset of its predecessor.
func (b *Body) InsertAfter(idx int, ins *Instruction) {
	if idx < 0 || idx >= len(b.Instructions) {
		panic(fmt.Sprintf("meta: insert position %d out of range [0,%d)", idx, len(b.Instructions)))
	}
	ins.Offset = b.Instructions[idx].Offset
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+2:], b.Instructions[idx+1:])
	b.Instructions[idx+1] = ins
}

// Next returns the instruction following idx, or nil.
func (b *Body) Next(idx int) *Instruction {
	if idx+1 < len(b.Instructions) {
		return b.Instructions[idx+1]
	}
	return nil
}
