// Package validate performs structural validation of a smali class model,
// typically one that was built or mutated in code rather than parsed. It is
// not a bytecode verifier; it checks the constraints that would make the
// rendered text unparseable or obviously broken.
//
// Goals:
//   - Aggregate multiple issues into a single error for better UX
//   - Deterministic messages, in model order
//   - Strict enough to catch bad edits without modelling the Dalvik verifier
package validate

import (
	"errors"
	"fmt"
	"strings"

	"smalikit/types"
)

// Class validates class-level constraints and every method:
//
//   - The class name is a well-formed class descriptor.
//   - Every class other than java.lang.Object has a .super.
//   - No duplicate interfaces, fields (name+type) or methods (name+prototype).
//   - Field types are not void and array dimensions stay within 255.
//   - Each method passes Method.
//
// The function returns nil if everything looks fine, or a single aggregated
// error describing all the issues found.
func Class(c *types.SmaliClass) error {
	var errs errlist

	if c.Name.IsZero() {
		errs.add("class name must be non-empty")
	} else if _, err := types.ParseJNIType(c.Name.JNIType()); err != nil {
		errs.add("class name: %v", err)
	}
	if c.Super == nil && c.Name.InternalName() != "java/lang/Object" {
		errs.add("class %s has no .super", c.Name.JavaType())
	}

	seenIface := make(map[string]struct{}, len(c.Implements))
	for _, iface := range c.Implements {
		if _, dup := seenIface[iface.InternalName()]; dup {
			errs.add("duplicate interface %s", iface.JNIType())
		}
		seenIface[iface.InternalName()] = struct{}{}
	}

	seenField := make(map[string]struct{}, len(c.Fields))
	for i, f := range c.Fields {
		prefix := fmt.Sprintf("fields[%d] (%s)", i, f.Name)
		key := f.Name + ":" + f.Type.JNI()
		if _, dup := seenField[key]; dup {
			errs.add("%s: duplicate field %s", prefix, key)
		}
		seenField[key] = struct{}{}
		if f.Name == "" {
			errs.add("%s: name must be non-empty", prefix)
		}
		if f.Type.Kind == types.KindVoid || f.Type.Kind == types.KindInvalid {
			errs.add("%s: invalid field type %q", prefix, f.Type.JNI())
		}
		checkType(&errs, prefix, f.Type)
	}

	seenMethod := make(map[string]struct{}, len(c.Methods))
	for i := range c.Methods {
		m := &c.Methods[i]
		key := m.Name + m.Signature.JNI()
		if _, dup := seenMethod[key]; dup {
			errs.add("methods[%d] (%s): duplicate method", i, key)
		}
		seenMethod[key] = struct{}{}
		if err := Method(m); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				errs.add("methods[%d] (%s): %s", i, key, line)
			}
		}
	}

	return errs.err()
}

// Method validates one method:
//
//   - Labels are declared once and every referenced label is declared.
//   - Each opcode instruction carries the operand shape of its opcode, and
//     literals fit the opcode's encoding.
//   - Non-range register lists hold at most five registers; ranges ascend.
//   - Registers stay inside the declared frame when one is declared.
//   - Switch and fill-array-data targets point at a matching payload.
//   - Catch ranges start before they end.
//   - Abstract and native methods have no body.
func Method(m *types.Method) error {
	var errs errlist

	if m.Name == "" {
		errs.add("name must be non-empty")
	}
	for i, p := range m.Signature.Params {
		checkType(&errs, fmt.Sprintf("parameter %d", i), p)
	}
	checkType(&errs, "return type", m.Signature.Return)

	if m.Flags&(types.AccAbstract|types.AccNative) != 0 && len(m.Instructions()) > 0 {
		errs.add("abstract or native method must not have a body")
	}

	labels := m.Labels()
	declared := make(map[string]struct{}, len(labels))
	for i, in := range m.Body {
		if l, ok := in.(types.Label); ok {
			if _, dup := declared[l.Name]; dup {
				errs.add("body[%d]: label :%s declared twice", i, l.Name)
			}
			declared[l.Name] = struct{}{}
		}
	}

	frame := frameOf(m)
	for i, in := range m.Body {
		prefix := fmt.Sprintf("body[%d]", i)
		for _, ref := range types.LabelRefs(in) {
			if _, ok := labels[ref]; !ok {
				errs.add("%s: undefined label :%s", prefix, ref)
			}
		}
		checkElement(&errs, prefix, in)
		for _, r := range registersOf(in) {
			if msg := frame.check(r); msg != "" {
				errs.add("%s: %s", prefix, msg)
			}
		}
		switch x := in.(type) {
		case types.InsnRegLabel:
			if want := payloadFor(x.Op); want != "" {
				if got := payloadAfter(m.Body, labels, x.Target); got != want {
					errs.add("%s: %s target :%s is not followed by %s", prefix, x.Op.Name(), x.Target, want)
				}
			}
		case types.Catch:
			s, okS := labels[x.Start]
			e, okE := labels[x.End]
			if okS && okE && s > e {
				errs.add("%s: catch range :%s .. :%s ends before it starts", prefix, x.Start, x.End)
			}
		}
	}
	for i, p := range m.Params {
		if msg := frame.check(p.Register); msg != "" {
			errs.add("params[%d]: %s", i, msg)
		}
	}

	return errs.err()
}

func checkType(errs *errlist, prefix string, t types.TypeSignature) {
	if t.Kind == types.KindArray {
		if t.Dims < 1 || t.Dims > types.MaxArrayDimensions {
			errs.add("%s: array dimensions %d out of range 1..%d", prefix, t.Dims, types.MaxArrayDimensions)
		}
		if t.Elem == nil {
			errs.add("%s: array without element type", prefix)
		} else if t.Elem.Kind == types.KindVoid || t.Elem.Kind == types.KindArray {
			errs.add("%s: invalid array element type %q", prefix, t.Elem.JNI())
		}
	}
}

// checkElement validates one body element in isolation.
func checkElement(errs *errlist, prefix string, in types.Instruction) {
	if op, ok := in.(types.Op); ok {
		code := op.Opcode()
		if !code.Valid() {
			errs.add("%s: invalid opcode 0x%02x", prefix, uint8(code))
			return
		}
		if got, want := types.ShapeFormat(in), code.Format(); got != want {
			errs.add("%s: %s does not take %T operands", prefix, code.Name(), in)
			return
		}
	}
	switch x := in.(type) {
	case types.InsnConst:
		if !x.Op.Info().Literal.Fits(x.Value) {
			errs.add("%s: literal %d does not fit %s", prefix, x.Value, x.Op.Name())
		}
	case types.InsnRegRegLiteral:
		if !x.Op.Info().Literal.Fits(int64(x.Value)) {
			errs.add("%s: literal %d does not fit %s", prefix, x.Value, x.Op.Name())
		}
	case types.InsnRegListType:
		checkList(errs, prefix, x.Op, x.Regs)
	case types.InsnInvoke:
		checkList(errs, prefix, x.Op, x.Regs)
	case types.InsnInvokePolymorphic:
		checkList(errs, prefix, x.Op, x.Regs)
	case types.InsnInvokeCustom:
		checkList(errs, prefix, x.Op, x.Regs)
	case types.ArrayDataPayload:
		var w types.LiteralWidth
		switch x.ElementWidth {
		case 1:
			w = types.LitByte
		case 2:
			w = types.LitShort
		case 4:
			w = types.LitInt
		case 8:
			w = types.LitLong
		default:
			errs.add("%s: array-data element width %d is not 1, 2, 4 or 8", prefix, x.ElementWidth)
			return
		}
		for k, v := range x.Values {
			if !w.Fits(v) {
				errs.add("%s: array-data value %d (index %d) does not fit %d bytes", prefix, v, k, x.ElementWidth)
			}
		}
	case types.LocalStart:
		if x.Type == nil && (x.Name != nil || x.Signature != nil) {
			errs.add("%s: .local with a name or signature needs a type", prefix)
		}
	}
}

func checkList(errs *errlist, prefix string, op types.Opcode, l types.RegisterList) {
	if l.Range != op.Info().Range {
		errs.add("%s: %s register list form does not match the opcode", prefix, op.Name())
		return
	}
	if !l.Range {
		if len(l.Regs) > 5 {
			errs.add("%s: %s takes at most 5 registers, got %d", prefix, op.Name(), len(l.Regs))
		}
		return
	}
	if len(l.Regs) > 2 {
		errs.add("%s: range list holds %d registers, want first and last", prefix, len(l.Regs))
	}
	if len(l.Regs) == 2 {
		a, b := l.Regs[0], l.Regs[1]
		if a.Kind != b.Kind || a.Num > b.Num {
			errs.add("%s: invalid register range {%s .. %s}", prefix, a, b)
		}
	}
}

func payloadFor(op types.Opcode) string {
	switch op {
	case types.OpPackedSwitch:
		return ".packed-switch"
	case types.OpSparseSwitch:
		return ".sparse-switch"
	case types.OpFillArrayData:
		return ".array-data"
	}
	return ""
}

// payloadAfter names the payload that follows label, skipping other labels.
func payloadAfter(body []types.Instruction, labels map[string]int, label string) string {
	i, ok := labels[label]
	if !ok {
		return ""
	}
	for _, in := range body[i+1:] {
		switch in.(type) {
		case types.Label:
			continue
		case types.PackedSwitchPayload:
			return ".packed-switch"
		case types.SparseSwitchPayload:
			return ".sparse-switch"
		case types.ArrayDataPayload:
			return ".array-data"
		}
		return ""
	}
	return ""
}

// frame bounds register numbers when the method declares its size.
type frame struct {
	declared bool
	locals   int
	params   int
}

func frameOf(m *types.Method) frame {
	if m.Directive == types.NoRegisters {
		return frame{}
	}
	return frame{declared: true, locals: m.LocalCount(), params: m.Signature.ParameterRegisters(m.IsStatic())}
}

func (f frame) check(r types.Register) string {
	if !f.declared {
		return ""
	}
	switch r.Kind {
	case types.LocalReg:
		if int(r.Num) >= f.locals {
			return fmt.Sprintf("register %s outside %d local registers", r, f.locals)
		}
	case types.ParamReg:
		if int(r.Num) >= f.params {
			return fmt.Sprintf("register %s outside %d parameter registers", r, f.params)
		}
	default:
		return fmt.Sprintf("invalid register kind %q", rune(r.Kind))
	}
	return ""
}

// registersOf lists the registers an element names directly.
func registersOf(in types.Instruction) []types.Register {
	switch x := in.(type) {
	case types.InsnReg:
		return []types.Register{x.A}
	case types.InsnRegReg:
		return []types.Register{x.A, x.B}
	case types.InsnRegRegReg:
		return []types.Register{x.A, x.B, x.C}
	case types.InsnConst:
		return []types.Register{x.A}
	case types.InsnConstString:
		return []types.Register{x.A}
	case types.InsnRegType:
		return []types.Register{x.A}
	case types.InsnRegRegType:
		return []types.Register{x.A, x.B}
	case types.InsnRegListType:
		return x.Regs.Regs
	case types.InsnRegLabel:
		return []types.Register{x.A}
	case types.InsnRegRegLabel:
		return []types.Register{x.A, x.B}
	case types.InsnRegField:
		return []types.Register{x.A}
	case types.InsnRegRegField:
		return []types.Register{x.A, x.B}
	case types.InsnInvoke:
		return x.Regs.Regs
	case types.InsnInvokePolymorphic:
		return x.Regs.Regs
	case types.InsnInvokeCustom:
		return x.Regs.Regs
	case types.InsnRegRegLiteral:
		return []types.Register{x.A, x.B}
	case types.InsnMethodHandle:
		return []types.Register{x.A}
	case types.InsnMethodType:
		return []types.Register{x.A}
	case types.LocalStart:
		return []types.Register{x.Register}
	case types.LocalEnd:
		return []types.Register{x.Register}
	case types.LocalRestart:
		return []types.Register{x.Register}
	}
	return nil
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	// Join with newline for readability.
	return errors.New(strings.Join(e.msgs, "\n"))
}
