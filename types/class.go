package types

// SmaliClass is the aggregate root produced by the parser and consumed by
// the writer. It owns everything it holds; identifiers are plain values.
type SmaliClass struct {
	Flags       AccessFlags
	Name        ObjectIdentifier
	Super       *ObjectIdentifier
	Implements  []ObjectIdentifier
	Source      *string
	Annotations []Annotation
	Fields      []Field
	Methods     []Method
}

// Field is a .field declaration.
type Field struct {
	Name        string
	Flags       AccessFlags
	Type        TypeSignature
	Initial     Value // nil when there is no "= value"
	Annotations []Annotation
}

// RegisterDirective records how a method declared its frame size.
type RegisterDirective int

const (
	NoRegisters RegisterDirective = iota
	RegistersDirective            // .registers N, N counts parameters too
	LocalsDirective               // .locals N, N excludes parameters
)

// Parameter is a .param directive.
type Parameter struct {
	Register    Register
	Name        *string
	Annotations []Annotation
}

// Method is a .method ... .end method block. Body keeps every element in
// source order; TryCatches, LocalVariables and Labels are views over it.
type Method struct {
	Name        string
	Flags       AccessFlags
	Signature   MethodSignature
	Directive   RegisterDirective
	Count       int
	Params      []Parameter
	Annotations []Annotation
	Body        []Instruction
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool { return m.Flags.Has(AccStatic) }

// IsConstructor is true for <init> and <clinit>.
func (m *Method) IsConstructor() bool {
	return m.Name == "<init>" || m.Name == "<clinit>"
}

// TotalRegisters is the frame size (locals plus parameters) regardless of
// which directive declared it; 0 when none was declared.
func (m *Method) TotalRegisters() int {
	switch m.Directive {
	case RegistersDirective:
		return m.Count
	case LocalsDirective:
		return m.Count + m.Signature.ParameterRegisters(m.IsStatic())
	}
	return 0
}

// LocalCount is the number of non-parameter registers; 0 when none was
// declared.
func (m *Method) LocalCount() int {
	switch m.Directive {
	case RegistersDirective:
		n := m.Count - m.Signature.ParameterRegisters(m.IsStatic())
		if n < 0 {
			return 0
		}
		return n
	case LocalsDirective:
		return m.Count
	}
	return 0
}

// Instructions returns the opcode-bearing elements and payloads of the body,
// dropping labels and debug/try-catch directives.
func (m *Method) Instructions() []Instruction {
	var out []Instruction
	for _, in := range m.Body {
		switch in.(type) {
		case Op, PackedSwitchPayload, SparseSwitchPayload, ArrayDataPayload:
			out = append(out, in)
		}
	}
	return out
}

// Labels maps each declared label to its index in Body. When a label is
// declared twice the first declaration wins.
func (m *Method) Labels() map[string]int {
	out := make(map[string]int)
	for i, in := range m.Body {
		if l, ok := in.(Label); ok {
			if _, dup := out[l.Name]; !dup {
				out[l.Name] = i
			}
		}
	}
	return out
}

// TryCatch is one .catch/.catchall range.
type TryCatch struct {
	Exception *ObjectIdentifier // nil for catchall
	Start     string
	End       string
	Handler   string
}

// TryCatches lists the method's try/catch ranges in declaration order.
func (m *Method) TryCatches() []TryCatch {
	var out []TryCatch
	for _, in := range m.Body {
		if c, ok := in.(Catch); ok {
			out = append(out, TryCatch{Exception: c.Exception, Start: c.Start, End: c.End, Handler: c.Handler})
		}
	}
	return out
}

// LocalVariable is a debug local with the body range [Start, End) in which it
// is live. End is len(Body) when the variable is never ended.
type LocalVariable struct {
	Register  Register
	Name      *string
	Type      *TypeSignature
	Signature *string
	Start     int
	End       int
}

// LocalVariables pairs .local with .end local (and re-opens on
// .restart local) to produce ranges in order of first declaration.
func (m *Method) LocalVariables() []LocalVariable {
	var out []LocalVariable
	open := make(map[Register]int)   // register -> index into out of the live entry
	latest := make(map[Register]int) // register -> index into out of the last entry
	for i, in := range m.Body {
		switch d := in.(type) {
		case LocalStart:
			if k, ok := open[d.Register]; ok {
				out[k].End = i
			}
			out = append(out, LocalVariable{
				Register: d.Register, Name: d.Name, Type: d.Type, Signature: d.Signature,
				Start: i, End: len(m.Body),
			})
			open[d.Register] = len(out) - 1
			latest[d.Register] = len(out) - 1
		case LocalEnd:
			if k, ok := open[d.Register]; ok {
				out[k].End = i
				delete(open, d.Register)
			}
		case LocalRestart:
			k, ok := latest[d.Register]
			if !ok {
				continue
			}
			if _, live := open[d.Register]; live {
				continue
			}
			prev := out[k]
			prev.Start, prev.End = i, len(m.Body)
			out = append(out, prev)
			open[d.Register] = len(out) - 1
			latest[d.Register] = len(out) - 1
		}
	}
	return out
}
