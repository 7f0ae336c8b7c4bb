package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func TestMethodRegisterViews(t *testing.T) {
	sig, err := ParseMethodSignature("(JI)V")
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	m := &Method{Name: "run", Signature: sig, Directive: LocalsDirective, Count: 2}
	assert.Equal(t, 6, m.TotalRegisters())
	assert.Equal(t, 2, m.LocalCount())

	m.Flags = AccStatic
	m.Directive, m.Count = RegistersDirective, 5
	assert.Equal(t, 5, m.TotalRegisters())
	assert.Equal(t, 2, m.LocalCount())

	m.Directive = NoRegisters
	assert.Zero(t, m.TotalRegisters())
	assert.True(t, (&Method{Name: "<clinit>"}).IsConstructor())
}

func TestMethodBodyViews(t *testing.T) {
	exc := FromJavaType("java.lang.Exception")
	m := &Method{Body: []Instruction{
		Label{Name: "start"},
		LineNumber{Line: 3},
		LocalStart{Register: V(0), Name: str("x"), Type: &Int},
		InsnConst{Op: OpConst4, A: V(0), Value: 1},
		LocalEnd{Register: V(0)},
		Label{Name: "end"},
		LocalRestart{Register: V(0)},
		InsnNone{Op: OpReturnVoid},
		Label{Name: "handler"},
		Catch{Exception: &exc, Start: "start", End: "end", Handler: "handler"},
		Catch{Start: "start", End: "end", Handler: "handler"},
		Label{Name: "start"},
	}}

	assert.Equal(t, map[string]int{"start": 0, "end": 5, "handler": 8}, m.Labels())
	assert.Equal(t, []Instruction{
		InsnConst{Op: OpConst4, A: V(0), Value: 1},
		InsnNone{Op: OpReturnVoid},
	}, m.Instructions())

	tc := m.TryCatches()
	if assert.Len(t, tc, 2) {
		assert.Equal(t, "java.lang.Exception", tc[0].Exception.JavaType())
		assert.Nil(t, tc[1].Exception)
		assert.Equal(t, "handler", tc[1].Handler)
	}

	locals := m.LocalVariables()
	if assert.Len(t, locals, 2) {
		assert.Equal(t, 2, locals[0].Start)
		assert.Equal(t, 4, locals[0].End)
		assert.Equal(t, "x", *locals[1].Name)
		assert.Equal(t, 6, locals[1].Start)
		assert.Equal(t, len(m.Body), locals[1].End)
	}
}

func TestShapeFormatAndLabelRefs(t *testing.T) {
	assert.Equal(t, FormatRegLabel, ShapeFormat(InsnRegLabel{Op: OpIfEqz, A: V(0), Target: "l"}))
	assert.Equal(t, FormatInvalid, ShapeFormat(Label{Name: "l"}))
	assert.Equal(t, []string{"a", "b"}, LabelRefs(PackedSwitchPayload{Targets: []string{"a", "b"}}))
	assert.Equal(t, []string{"s", "e", "h"}, LabelRefs(Catch{Start: "s", End: "e", Handler: "h"}))
	assert.Nil(t, LabelRefs(InsnNone{Op: OpNop}))
	assert.Equal(t, []SwitchEntry{{Key: 5, Target: "a"}, {Key: 6, Target: "b"}},
		PackedSwitchPayload{FirstKey: 5, Targets: []string{"a", "b"}}.Entries())
}

func TestParseErrorKinds(t *testing.T) {
	err := &ParseError{Kind: Structural, Line: 4, Column: 1, Msg: "missing .end method"}
	assert.Equal(t, "line 4:1: missing .end method", err.Error())
	assert.ErrorIs(t, err, ErrStructural)
	assert.NotErrorIs(t, err, ErrLexical)
	assert.Equal(t, "incomplete", Incomplete.String())
}
