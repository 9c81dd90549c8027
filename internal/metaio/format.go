// Package metaio reads and writes module files.
//
// A module file is a single msgpack document. References are stored in flat
// tables; rows point at other rows by index plus one, zero meaning none.
// Every row only points at rows before it, so decoding is one forward pass
// and shared references stay shared.
package metaio

import "errors"

// Magic identifies a module file.
const Magic = "RLMD"

// SchemaVersion is bumped whenever the document layout changes.
const SchemaVersion uint16 = 1

var (
	// ErrBadMagic is returned for files that are not module files.
	ErrBadMagic = errors.New("not a module file")
	// ErrSchema is returned for module files of another schema version.
	ErrSchema = errors.New("unsupported module file schema")
	// ErrCorrupt is returned when a row points outside its table.
	ErrCorrupt = errors.New("corrupt module file")
)

type document struct {
	Magic        string
	Schema       uint16
	Name         string
	Assembly     string
	AssemblyRefs []assemblyRow

	Types   []typeRow
	Methods []methodRow
	Fields  []fieldRow

	Defs    []defRow
	Imports importRows
}

type assemblyRow struct {
	Name    string
	Version [4]uint16
}

type typeRow struct {
	Kind          uint8
	Namespace     string
	Name          string
	Scope         string
	Declaring     uint32
	Elem          uint32
	Rank          uint32
	Args          []uint32
	GenericParams []uint32
	Position      uint32
	Owner         uint8
	ValueType     bool
}

type methodRow struct {
	Name          string
	Declaring     uint32
	Return        uint32
	Params        []uint32
	GenericParams []uint32
	Elem          uint32
	GenericArgs   []uint32
	HasThis       bool
	ExplicitThis  bool
	CallConv      uint8
}

type fieldRow struct {
	Name      string
	Declaring uint32
	Type      uint32
}

type defRow struct {
	Self       uint32
	Base       uint32
	Interfaces []uint32
	Fields     []fieldDefRow
	Properties []propertyRow
	Methods    []methodDefRow
	Nested     []defRow
}

type fieldDefRow struct {
	Ref    uint32
	Static bool
}

type propertyRow struct {
	Name string
	Type uint32
}

type methodDefRow struct {
	Ref        uint32
	ParamNames []string
	Static     bool
	HasBody    bool
	Locals     []uint32
	Code       []instructionRow
}

// Operand kinds of an instructionRow.
const (
	operandNone uint8 = iota
	operandType
	operandMethod
	operandField
	operandString
	operandOther
)

type instructionRow struct {
	Offset  uint32
	OpCode  uint16
	Operand uint8
	Ref     uint32
	Str     string
	Imm     int64
}

type importRows struct {
	Types   []uint32
	Methods []uint32
	Fields  []uint32
}
