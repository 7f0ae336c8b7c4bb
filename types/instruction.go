package types

import (
	"fmt"
	"strconv"
)

// RegisterKind distinguishes local (v) from parameter (p) registers.
type RegisterKind byte

const (
	LocalReg RegisterKind = 'v'
	ParamReg RegisterKind = 'p'
)

// Register is a v<N> or p<N> operand.
type Register struct {
	Kind RegisterKind
	Num  uint16
}

// V and P build registers.
func V(n uint16) Register { return Register{Kind: LocalReg, Num: n} }
func P(n uint16) Register { return Register{Kind: ParamReg, Num: n} }

func (r Register) String() string {
	return string(rune(r.Kind)) + strconv.Itoa(int(r.Num))
}

// RegisterList is the {...} operand of invoke and filled-new-array. In the
// Range form Regs holds the first and last register of the range, a single
// register for {vA}, or nothing for {}.
type RegisterList struct {
	Regs  []Register
	Range bool
}

// FieldRef is Lowner;->name:Type.
type FieldRef struct {
	Owner TypeSignature
	Name  string
	Type  TypeSignature
}

func (f FieldRef) String() string {
	return f.Owner.JNI() + "->" + f.Name + ":" + f.Type.JNI()
}

// MethodRef is Lowner;->name(params)ret. The owner may be an array type
// (e.g. [I->clone()Ljava/lang/Object;).
type MethodRef struct {
	Owner     TypeSignature
	Name      string
	Signature MethodSignature
}

func (m MethodRef) String() string {
	return m.Owner.JNI() + "->" + m.Name + m.Signature.JNI()
}

// Instruction is one element of a method body: an opcode with its operands,
// a data payload, a label, or a debug/try-catch directive. The set is
// closed; see the Insn*, payload and directive types in this file.
type Instruction interface {
	isInstruction()
}

// Op is implemented by the variants that carry a Dalvik opcode.
type Op interface {
	Instruction
	Opcode() Opcode
}

type (
	// InsnNone: nop, return-void.
	InsnNone struct {
		Op Opcode
	}
	// InsnReg: move-result, return, throw, monitor-*.
	InsnReg struct {
		Op Opcode
		A  Register
	}
	// InsnRegReg: moves, unary ops, array-length, */2addr.
	InsnRegReg struct {
		Op   Opcode
		A, B Register
	}
	// InsnRegRegReg: binary ops, compares, aget/aput.
	InsnRegRegReg struct {
		Op      Opcode
		A, B, C Register
	}
	// InsnConst: const, const-wide and their width variants. Value holds
	// the full literal (already shifted for the high16 forms).
	InsnConst struct {
		Op    Opcode
		A     Register
		Value int64
	}
	// InsnConstString: const-string, const-string/jumbo.
	InsnConstString struct {
		Op    Opcode
		A     Register
		Value string // WTF-8, like StringValue
	}
	// InsnRegType: const-class, check-cast, new-instance.
	InsnRegType struct {
		Op   Opcode
		A    Register
		Type TypeSignature
	}
	// InsnRegRegType: instance-of, new-array.
	InsnRegRegType struct {
		Op   Opcode
		A, B Register
		Type TypeSignature
	}
	// InsnRegListType: filled-new-array.
	InsnRegListType struct {
		Op   Opcode
		Regs RegisterList
		Type TypeSignature
	}
	// InsnLabel: goto.
	InsnLabel struct {
		Op     Opcode
		Target string
	}
	// InsnRegLabel: if-*z, packed-switch, sparse-switch, fill-array-data.
	InsnRegLabel struct {
		Op     Opcode
		A      Register
		Target string
	}
	// InsnRegRegLabel: if-eq and friends.
	InsnRegRegLabel struct {
		Op     Opcode
		A, B   Register
		Target string
	}
	// InsnRegField: sget/sput.
	InsnRegField struct {
		Op    Opcode
		A     Register
		Field FieldRef
	}
	// InsnRegRegField: iget/iput.
	InsnRegRegField struct {
		Op    Opcode
		A, B  Register
		Field FieldRef
	}
	// InsnInvoke: invoke-* and invoke-*/range.
	InsnInvoke struct {
		Op     Opcode
		Regs   RegisterList
		Method MethodRef
	}
	// InsnInvokePolymorphic: invoke-polymorphic with its call-site prototype.
	InsnInvokePolymorphic struct {
		Op     Opcode
		Regs   RegisterList
		Method MethodRef
		Proto  MethodSignature
	}
	// InsnInvokeCustom: invoke-custom. The call site reference is kept as
	// written.
	InsnInvokeCustom struct {
		Op       Opcode
		Regs     RegisterList
		CallSite string
	}
	// InsnRegRegLiteral: binop/lit8 and binop/lit16.
	InsnRegRegLiteral struct {
		Op    Opcode
		A, B  Register
		Value int32
	}
	// InsnMethodHandle: const-method-handle, handle kept as written.
	InsnMethodHandle struct {
		Op     Opcode
		A      Register
		Handle string
	}
	// InsnMethodType: const-method-type.
	InsnMethodType struct {
		Op    Opcode
		A     Register
		Proto MethodSignature
	}
)

// PackedSwitchPayload is a .packed-switch table: Targets[i] is taken for key
// FirstKey+i.
type PackedSwitchPayload struct {
	FirstKey int32
	Targets  []string
}

// SwitchEntry is one key/label pair of a switch table.
type SwitchEntry struct {
	Key    int32
	Target string
}

// Entries expands the packed table into key/label pairs.
func (p PackedSwitchPayload) Entries() []SwitchEntry {
	out := make([]SwitchEntry, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = SwitchEntry{Key: p.FirstKey + int32(i), Target: t}
	}
	return out
}

// SparseSwitchPayload is a .sparse-switch table in declaration order.
type SparseSwitchPayload struct {
	Entries []SwitchEntry
}

// ArrayDataPayload is an .array-data table. Values are stored as raw element
// bits sign-extended to 64 bits; ElementWidth is 1, 2, 4 or 8.
type ArrayDataPayload struct {
	ElementWidth int
	Values       []int64
}

// Label declares :Name at this position of the body.
type Label struct {
	Name string
}

// LineNumber is a .line directive.
type LineNumber struct {
	Line int
}

// Prologue and Epilogue are the .prologue / .epilogue debug markers.
type Prologue struct{}
type Epilogue struct{}

// Catch is a .catch (Exception set) or .catchall (Exception nil) directive
// covering Start..End and jumping to Handler.
type Catch struct {
	Exception *ObjectIdentifier
	Start     string
	End       string
	Handler   string
}

// LocalStart is a .local directive. Type is nil for the bare form
// ".local v0"; Name is nil when the name is written as null.
type LocalStart struct {
	Register  Register
	Name      *string
	Type      *TypeSignature
	Signature *string
}

// LocalEnd is .end local.
type LocalEnd struct {
	Register Register
}

// LocalRestart is .restart local.
type LocalRestart struct {
	Register Register
}

func (InsnNone) isInstruction()              {}
func (InsnReg) isInstruction()               {}
func (InsnRegReg) isInstruction()            {}
func (InsnRegRegReg) isInstruction()         {}
func (InsnConst) isInstruction()             {}
func (InsnConstString) isInstruction()       {}
func (InsnRegType) isInstruction()           {}
func (InsnRegRegType) isInstruction()        {}
func (InsnRegListType) isInstruction()       {}
func (InsnLabel) isInstruction()             {}
func (InsnRegLabel) isInstruction()          {}
func (InsnRegRegLabel) isInstruction()       {}
func (InsnRegField) isInstruction()          {}
func (InsnRegRegField) isInstruction()       {}
func (InsnInvoke) isInstruction()            {}
func (InsnInvokePolymorphic) isInstruction() {}
func (InsnInvokeCustom) isInstruction()      {}
func (InsnRegRegLiteral) isInstruction()     {}
func (InsnMethodHandle) isInstruction()      {}
func (InsnMethodType) isInstruction()        {}
func (PackedSwitchPayload) isInstruction()   {}
func (SparseSwitchPayload) isInstruction()   {}
func (ArrayDataPayload) isInstruction()      {}
func (Label) isInstruction()                 {}
func (LineNumber) isInstruction()            {}
func (Prologue) isInstruction()              {}
func (Epilogue) isInstruction()              {}
func (Catch) isInstruction()                 {}
func (LocalStart) isInstruction()            {}
func (LocalEnd) isInstruction()              {}
func (LocalRestart) isInstruction()          {}

func (i InsnNone) Opcode() Opcode              { return i.Op }
func (i InsnReg) Opcode() Opcode               { return i.Op }
func (i InsnRegReg) Opcode() Opcode            { return i.Op }
func (i InsnRegRegReg) Opcode() Opcode         { return i.Op }
func (i InsnConst) Opcode() Opcode             { return i.Op }
func (i InsnConstString) Opcode() Opcode       { return i.Op }
func (i InsnRegType) Opcode() Opcode           { return i.Op }
func (i InsnRegRegType) Opcode() Opcode        { return i.Op }
func (i InsnRegListType) Opcode() Opcode       { return i.Op }
func (i InsnLabel) Opcode() Opcode             { return i.Op }
func (i InsnRegLabel) Opcode() Opcode          { return i.Op }
func (i InsnRegRegLabel) Opcode() Opcode       { return i.Op }
func (i InsnRegField) Opcode() Opcode          { return i.Op }
func (i InsnRegRegField) Opcode() Opcode       { return i.Op }
func (i InsnInvoke) Opcode() Opcode            { return i.Op }
func (i InsnInvokePolymorphic) Opcode() Opcode { return i.Op }
func (i InsnInvokeCustom) Opcode() Opcode      { return i.Op }
func (i InsnRegRegLiteral) Opcode() Opcode     { return i.Op }
func (i InsnMethodHandle) Opcode() Opcode      { return i.Op }
func (i InsnMethodType) Opcode() Opcode        { return i.Op }

// ShapeFormat returns the operand format an instruction variant carries, or
// FormatInvalid for non-opcode body elements.
func ShapeFormat(in Instruction) Format {
	switch i := in.(type) {
	case InsnNone:
		return FormatNone
	case InsnReg:
		return FormatReg
	case InsnRegReg:
		return FormatRegReg
	case InsnRegRegReg:
		return FormatRegRegReg
	case InsnConst:
		return FormatRegLiteral
	case InsnConstString:
		return FormatRegString
	case InsnRegType:
		return FormatRegType
	case InsnRegRegType:
		return FormatRegRegType
	case InsnRegListType:
		return FormatRegListType
	case InsnLabel:
		return FormatLabel
	case InsnRegLabel:
		return FormatRegLabel
	case InsnRegRegLabel:
		return FormatRegRegLabel
	case InsnRegField:
		return FormatRegField
	case InsnRegRegField:
		return FormatRegRegField
	case InsnInvoke:
		return FormatRegListMethod
	case InsnInvokePolymorphic:
		return FormatRegListMethodProto
	case InsnInvokeCustom:
		return FormatRegListCallSite
	case InsnRegRegLiteral:
		return FormatRegRegLiteral
	case InsnMethodHandle:
		return FormatRegMethodHandle
	case InsnMethodType:
		return FormatRegProto
	case PackedSwitchPayload, SparseSwitchPayload, ArrayDataPayload, Label, LineNumber,
		Prologue, Epilogue, Catch, LocalStart, LocalEnd, LocalRestart:
		return FormatInvalid
	default:
		panic(fmt.Sprintf("types: unhandled instruction %T", i))
	}
}

// LabelRefs lists the labels an element refers to, in operand order.
func LabelRefs(in Instruction) []string {
	switch i := in.(type) {
	case InsnLabel:
		return []string{i.Target}
	case InsnRegLabel:
		return []string{i.Target}
	case InsnRegRegLabel:
		return []string{i.Target}
	case PackedSwitchPayload:
		return append([]string(nil), i.Targets...)
	case SparseSwitchPayload:
		out := make([]string, len(i.Entries))
		for k, e := range i.Entries {
			out[k] = e.Target
		}
		return out
	case Catch:
		return []string{i.Start, i.End, i.Handler}
	}
	return nil
}
