package write

import (
	"fmt"
	"strings"

	"smalikit/types"
)

func (p *printer) body(indent int, body []types.Instruction) {
	for _, in := range body {
		switch x := in.(type) {
		case types.PackedSwitchPayload:
			p.line(indent, ".packed-switch ", Hex(int64(x.FirstKey)))
			for _, t := range x.Targets {
				p.line(indent+1, ":", t)
			}
			p.line(indent, ".end packed-switch")
			p.blank()
		case types.SparseSwitchPayload:
			p.line(indent, ".sparse-switch")
			for _, e := range x.Entries {
				p.line(indent+1, Hex(int64(e.Key)), " -> :", e.Target)
			}
			p.line(indent, ".end sparse-switch")
			p.blank()
		case types.ArrayDataPayload:
			p.line(indent, ".array-data ", itoa(int64(x.ElementWidth)))
			suffix := arraySuffix(x.ElementWidth)
			for _, v := range x.Values {
				p.line(indent+1, Hex(v), suffix)
			}
			p.line(indent, ".end array-data")
			p.blank()
		case types.Op:
			p.line(indent, Instruction(x))
			p.blank()
		default:
			p.line(indent, Directive(in))
		}
	}
}

func arraySuffix(width int) string {
	switch width {
	case 1:
		return "t"
	case 2:
		return "s"
	case 8:
		return "L"
	}
	return ""
}

// Directive renders a label, debug or try/catch directive on one line.
func Directive(in types.Instruction) string {
	switch x := in.(type) {
	case types.Label:
		return ":" + x.Name
	case types.LineNumber:
		return ".line " + itoa(int64(x.Line))
	case types.Prologue:
		return ".prologue"
	case types.Epilogue:
		return ".epilogue"
	case types.Catch:
		span := "{:" + x.Start + " .. :" + x.End + "} :" + x.Handler
		if x.Exception == nil {
			return ".catchall " + span
		}
		return ".catch " + x.Exception.JNIType() + " " + span
	case types.LocalStart:
		s := ".local " + x.Register.String()
		if x.Type == nil {
			return s
		}
		name := "null"
		if x.Name != nil {
			name = Quote(*x.Name)
		}
		s += ", " + name + ":" + x.Type.JNI()
		if x.Signature != nil {
			s += ", " + Quote(*x.Signature)
		}
		return s
	case types.LocalEnd:
		return ".end local " + x.Register.String()
	case types.LocalRestart:
		return ".restart local " + x.Register.String()
	}
	panic(fmt.Sprintf("write: %T is not a directive", in))
}

// Instruction renders one opcode instruction.
func Instruction(in types.Op) string {
	op := in.Opcode()
	name := op.Name()
	switch x := in.(type) {
	case types.InsnNone:
		return name
	case types.InsnReg:
		return operands(name, x.A.String())
	case types.InsnRegReg:
		return operands(name, x.A.String(), x.B.String())
	case types.InsnRegRegReg:
		return operands(name, x.A.String(), x.B.String(), x.C.String())
	case types.InsnConst:
		lit := Hex(x.Value)
		if op.Info().Wide {
			lit += "L"
		}
		return operands(name, x.A.String(), lit)
	case types.InsnConstString:
		return operands(name, x.A.String(), Quote(x.Value))
	case types.InsnRegType:
		return operands(name, x.A.String(), x.Type.JNI())
	case types.InsnRegRegType:
		return operands(name, x.A.String(), x.B.String(), x.Type.JNI())
	case types.InsnRegListType:
		return operands(name, RegisterList(x.Regs), x.Type.JNI())
	case types.InsnLabel:
		return operands(name, ":"+x.Target)
	case types.InsnRegLabel:
		return operands(name, x.A.String(), ":"+x.Target)
	case types.InsnRegRegLabel:
		return operands(name, x.A.String(), x.B.String(), ":"+x.Target)
	case types.InsnRegField:
		return operands(name, x.A.String(), x.Field.String())
	case types.InsnRegRegField:
		return operands(name, x.A.String(), x.B.String(), x.Field.String())
	case types.InsnInvoke:
		return operands(name, RegisterList(x.Regs), x.Method.String())
	case types.InsnInvokePolymorphic:
		return operands(name, RegisterList(x.Regs), x.Method.String(), x.Proto.JNI())
	case types.InsnInvokeCustom:
		return operands(name, RegisterList(x.Regs), x.CallSite)
	case types.InsnRegRegLiteral:
		return operands(name, x.A.String(), x.B.String(), Hex(int64(x.Value)))
	case types.InsnMethodHandle:
		return operands(name, x.A.String(), x.Handle)
	case types.InsnMethodType:
		return operands(name, x.A.String(), x.Proto.JNI())
	}
	panic(fmt.Sprintf("write: unhandled instruction %T", in))
}

func operands(name string, ops ...string) string {
	return name + " " + strings.Join(ops, ", ")
}

// RegisterList renders {v0, v1} or, in range form, {v0 .. v3}.
func RegisterList(l types.RegisterList) string {
	if l.Range {
		switch len(l.Regs) {
		case 0:
			return "{}"
		case 1:
			return "{" + l.Regs[0].String() + "}"
		default:
			return "{" + l.Regs[0].String() + " .. " + l.Regs[len(l.Regs)-1].String() + "}"
		}
	}
	regs := make([]string, len(l.Regs))
	for i, r := range l.Regs {
		regs[i] = r.String()
	}
	return "{" + strings.Join(regs, ", ") + "}"
}
