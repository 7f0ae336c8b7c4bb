// Package write renders the types model back to smali text.
//
// The output is canonical, not a byte copy of whatever was parsed:
//   - methods, annotations and payload tables are indented by four spaces per level;
//   - every opcode instruction and payload is followed by a blank line;
//   - integers are written in hex, strings and chars with smali escapes.
//
// Parsing the rendered text yields a model equal to the one rendered.
package write

import (
	"strings"

	"smalikit/types"
)

const indentUnit = "    "

type printer struct {
	b strings.Builder
}

func (p *printer) line(indent int, parts ...string) {
	for i := 0; i < indent; i++ {
		p.b.WriteString(indentUnit)
	}
	for _, s := range parts {
		p.b.WriteString(s)
	}
	p.b.WriteByte('\n')
}

func (p *printer) blank() { p.b.WriteByte('\n') }

// Class renders a whole class.
func Class(c *types.SmaliClass) string {
	p := &printer{}
	p.line(0, ".class ", withFlags(c.Flags, types.ClassFlags), c.Name.JNIType())
	if c.Super != nil {
		p.line(0, ".super ", c.Super.JNIType())
	}
	if c.Source != nil {
		p.line(0, ".source ", Quote(*c.Source))
	}

	if len(c.Implements) > 0 {
		p.blank()
		p.line(0, "# interfaces")
		for _, iface := range c.Implements {
			p.line(0, ".implements ", iface.JNIType())
		}
	}

	if len(c.Annotations) > 0 {
		p.blank()
		p.line(0, "# annotations")
		for i, a := range c.Annotations {
			if i > 0 {
				p.blank()
			}
			p.annotation(0, a)
		}
	}

	group := ""
	for _, f := range c.Fields {
		g := "# instance fields"
		if f.Flags.Has(types.AccStatic) {
			g = "# static fields"
		}
		p.blank()
		if g != group {
			p.line(0, g)
			group = g
		}
		p.field(f)
	}

	group = ""
	for i := range c.Methods {
		m := &c.Methods[i]
		g := "# virtual methods"
		if m.IsStatic() || m.Flags.Has(types.AccPrivate) || m.IsConstructor() {
			g = "# direct methods"
		}
		p.blank()
		if g != group {
			p.line(0, g)
			group = g
		}
		p.method(m)
	}
	return p.b.String()
}

// Instructions renders body elements without indentation, one per line.
func Instructions(body []types.Instruction) string {
	p := &printer{}
	p.body(0, body)
	return p.b.String()
}

func withFlags(f types.AccessFlags, ctx types.FlagContext) string {
	if f == 0 {
		return ""
	}
	return f.Format(ctx) + " "
}

func (p *printer) field(f types.Field) {
	head := ".field " + withFlags(f.Flags, types.FieldFlags) + f.Name + ":" + f.Type.JNI()
	if f.Initial != nil {
		head += " = " + Value(f.Initial, 0)
	}
	p.line(0, head)
	if len(f.Annotations) == 0 {
		return
	}
	for _, a := range f.Annotations {
		p.annotation(1, a)
	}
	p.line(0, ".end field")
}

func (p *printer) method(m *types.Method) {
	p.line(0, ".method ", withFlags(m.Flags, types.MethodFlags), m.Name, m.Signature.JNI())
	switch m.Directive {
	case types.RegistersDirective:
		p.line(1, ".registers ", itoa(int64(m.Count)))
	case types.LocalsDirective:
		p.line(1, ".locals ", itoa(int64(m.Count)))
	}
	for _, prm := range m.Params {
		head := ".param " + prm.Register.String()
		if prm.Name != nil {
			head += ", " + Quote(*prm.Name)
		}
		p.line(1, head)
		if len(prm.Annotations) > 0 {
			for _, a := range prm.Annotations {
				p.annotation(2, a)
			}
			p.line(1, ".end param")
		}
	}
	for _, a := range m.Annotations {
		p.annotation(1, a)
	}
	if len(m.Body) > 0 {
		p.blank()
		p.body(1, m.Body)
	}
	p.line(0, ".end method")
}

func (p *printer) annotation(indent int, a types.Annotation) {
	p.line(indent, ".annotation ", string(a.Visibility), " ", a.Type.JNIType())
	p.elements(indent+1, a.Elements)
	p.line(indent, ".end annotation")
}

func (p *printer) elements(indent int, elems []types.AnnotationElement) {
	for _, e := range elems {
		p.line(indent, e.Name, " = ", Value(e.Value, indent))
	}
}
