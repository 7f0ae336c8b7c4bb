package parse

import (
	"strings"

	"smalikit/types"
)

// instruction parses a mnemonic and its operands. The line end is left to
// the caller.
func (s *scanner) instruction() (types.Instruction, error) {
	start := s.pos
	mnemonic := s.word("")
	op, ok := types.LookupOpcode(mnemonic)
	if !ok {
		return nil, s.errorAt(start, types.Lexical, "unknown opcode %q", mnemonic)
	}
	info := op.Info()
	s.skipSpace()

	switch info.Format {
	case types.FormatNone:
		return types.InsnNone{Op: op}, nil

	case types.FormatReg:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		return types.InsnReg{Op: op, A: a}, nil

	case types.FormatRegReg:
		regs, err := s.registers(2)
		if err != nil {
			return nil, err
		}
		return types.InsnRegReg{Op: op, A: regs[0], B: regs[1]}, nil

	case types.FormatRegRegReg:
		regs, err := s.registers(3)
		if err != nil {
			return nil, err
		}
		return types.InsnRegRegReg{Op: op, A: regs[0], B: regs[1], C: regs[2]}, nil

	case types.FormatRegLiteral:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		width := 4
		if op >= types.OpConstWide16 && op <= types.OpConstWideHigh16 {
			width = 8
		}
		v, err := s.checkedLiteral(info, width)
		if err != nil {
			return nil, err
		}
		return types.InsnConst{Op: op, A: a, Value: v}, nil

	case types.FormatRegString:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		str, err := s.stringLiteral()
		if err != nil {
			return nil, err
		}
		return types.InsnConstString{Op: op, A: a, Value: str}, nil

	case types.FormatRegType:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		t, err := s.typeDesc()
		if err != nil {
			return nil, err
		}
		return types.InsnRegType{Op: op, A: a, Type: t}, nil

	case types.FormatRegRegType:
		regs, err := s.registers(2)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		t, err := s.typeDesc()
		if err != nil {
			return nil, err
		}
		return types.InsnRegRegType{Op: op, A: regs[0], B: regs[1], Type: t}, nil

	case types.FormatRegListType:
		list, err := s.registerList(info.Range)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		t, err := s.typeDesc()
		if err != nil {
			return nil, err
		}
		return types.InsnRegListType{Op: op, Regs: list, Type: t}, nil

	case types.FormatLabel:
		target, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		return types.InsnLabel{Op: op, Target: target}, nil

	case types.FormatRegLabel:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		target, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		return types.InsnRegLabel{Op: op, A: a, Target: target}, nil

	case types.FormatRegRegLabel:
		regs, err := s.registers(2)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		target, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		return types.InsnRegRegLabel{Op: op, A: regs[0], B: regs[1], Target: target}, nil

	case types.FormatRegField:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		f, err := s.fieldRef()
		if err != nil {
			return nil, err
		}
		return types.InsnRegField{Op: op, A: a, Field: f}, nil

	case types.FormatRegRegField:
		regs, err := s.registers(2)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		f, err := s.fieldRef()
		if err != nil {
			return nil, err
		}
		return types.InsnRegRegField{Op: op, A: regs[0], B: regs[1], Field: f}, nil

	case types.FormatRegListMethod:
		list, err := s.registerList(info.Range)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		m, err := s.methodRef()
		if err != nil {
			return nil, err
		}
		return types.InsnInvoke{Op: op, Regs: list, Method: m}, nil

	case types.FormatRegListMethodProto:
		list, err := s.registerList(info.Range)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		m, err := s.methodRef()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		proto, err := s.protoDesc()
		if err != nil {
			return nil, err
		}
		return types.InsnInvokePolymorphic{Op: op, Regs: list, Method: m, Proto: proto}, nil

	case types.FormatRegListCallSite:
		list, err := s.registerList(info.Range)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		site := s.rawOperand()
		if site == "" {
			return nil, s.errorf(types.Lexical, "expected call site reference")
		}
		return types.InsnInvokeCustom{Op: op, Regs: list, CallSite: site}, nil

	case types.FormatRegRegLiteral:
		regs, err := s.registers(2)
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		v, err := s.checkedLiteral(info, 4)
		if err != nil {
			return nil, err
		}
		return types.InsnRegRegLiteral{Op: op, A: regs[0], B: regs[1], Value: int32(v)}, nil

	case types.FormatRegMethodHandle:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		h := s.rawOperand()
		if !strings.Contains(h, "@") {
			return nil, s.errorf(types.Lexical, "expected method handle kind@reference, found %q", h)
		}
		return types.InsnMethodHandle{Op: op, A: a, Handle: h}, nil

	case types.FormatRegProto:
		a, err := s.register()
		if err != nil {
			return nil, err
		}
		if err := s.comma(); err != nil {
			return nil, err
		}
		proto, err := s.protoDesc()
		if err != nil {
			return nil, err
		}
		return types.InsnMethodType{Op: op, A: a, Proto: proto}, nil
	}
	return nil, s.errorAt(start, types.Lexical, "opcode %s has no operand format", mnemonic)
}

// registers reads n comma-separated registers.
func (s *scanner) registers(n int) ([]types.Register, error) {
	out := make([]types.Register, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := s.comma(); err != nil {
				return nil, err
			}
		}
		r, err := s.register()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// registerList reads {v0, v1} or, for the /range opcodes, {v0 .. v3}. A
// range may also be written with a single register or none.
func (s *scanner) registerList(rangeForm bool) (types.RegisterList, error) {
	start := s.pos
	if err := s.expect("{"); err != nil {
		return types.RegisterList{}, err
	}
	s.skipSpace()
	list := types.RegisterList{Regs: []types.Register{}, Range: rangeForm}
	if s.peek() == '}' {
		s.pos++
		return list, nil
	}
	first, err := s.register()
	if err != nil {
		return types.RegisterList{}, err
	}
	list.Regs = append(list.Regs, first)
	s.skipSpace()
	if s.hasPrefix("..") {
		if !rangeForm {
			return types.RegisterList{}, s.errorf(types.Lexical, "register range is only allowed with /range opcodes")
		}
		s.pos += 2
		s.skipSpace()
		last, err := s.register()
		if err != nil {
			return types.RegisterList{}, err
		}
		if last.Kind != first.Kind || last.Num < first.Num {
			return types.RegisterList{}, s.errorAt(start, types.Lexical, "invalid register range {%s .. %s}", first, last)
		}
		list.Regs = append(list.Regs, last)
		s.skipSpace()
		return list, s.expect("}")
	}
	for s.peek() == ',' {
		if rangeForm {
			return types.RegisterList{}, s.errorAt(start, types.Lexical, "expected register range {vA .. vB}")
		}
		if err := s.comma(); err != nil {
			return types.RegisterList{}, err
		}
		r, err := s.register()
		if err != nil {
			return types.RegisterList{}, err
		}
		list.Regs = append(list.Regs, r)
		s.skipSpace()
	}
	if len(list.Regs) > 5 {
		return types.RegisterList{}, s.errorAt(start, types.Lexical, "too many registers (%d) for a non-range list", len(list.Regs))
	}
	return list, s.expect("}")
}

// checkedLiteral reads a literal operand and checks that it fits the
// opcode's encoding.
func (s *scanner) checkedLiteral(info types.OpInfo, width int) (int64, error) {
	start := s.pos
	v, err := s.literal64(width)
	if err != nil {
		return 0, err
	}
	if !info.Literal.Fits(v) {
		return 0, s.errorAt(start, types.Lexical, "literal %s does not fit %s", s.src[start:s.pos], info.Name)
	}
	return v, nil
}

// rawOperand takes the rest of the line up to a comment, honoring quotes.
func (s *scanner) rawOperand() string {
	start := s.pos
	quoted := false
	for !s.eof() {
		c := s.peek()
		if c == '\n' || (c == '#' && !quoted) {
			break
		}
		if c == '\\' && quoted {
			s.pos += 2
			continue
		}
		if c == '"' {
			quoted = !quoted
		}
		s.pos++
	}
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
	return strings.TrimRight(s.src[start:s.pos], " \t\r")
}
