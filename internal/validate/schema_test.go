package validate

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smalikit/internal/parse"
	"smalikit/types"
)

func TestClassFixtureIsValid(t *testing.T) {
	data, err := os.ReadFile("../parse/testdata/Test.smali")
	require.NoError(t, err)
	c, err := parse.Class(string(data))
	require.NoError(t, err)
	assert.NoError(t, Class(c))
}

func TestClassErrors(t *testing.T) {
	iface := types.FromJavaType("java.lang.Runnable")
	c := &types.SmaliClass{
		Name:       types.FromJavaType("com.basic.Bad"),
		Implements: []types.ObjectIdentifier{iface, iface},
		Fields: []types.Field{
			{Name: "a", Type: types.Int},
			{Name: "a", Type: types.Int},
			{Name: "v", Type: types.Void},
		},
		Methods: []types.Method{
			{Name: "m", Signature: types.MethodSignature{Return: types.Void}},
			{Name: "m", Signature: types.MethodSignature{Return: types.Void}},
		},
	}
	err := Class(c)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"class com.basic.Bad has no .super",
		"duplicate interface Ljava/lang/Runnable;",
		"fields[1] (a): duplicate field a:I",
		`fields[2] (v): invalid field type "V"`,
		"methods[1] (m()V): duplicate method",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Len(t, strings.Split(msg, "\n"), 5)
}

func TestObjectNeedsNoSuper(t *testing.T) {
	c := &types.SmaliClass{Name: types.FromJavaType("java.lang.Object")}
	assert.NoError(t, Class(c))
}

func TestMethodErrors(t *testing.T) {
	tests := []struct {
		name string
		m    types.Method
		want string
	}{
		{
			name: "undefined label",
			m:    method(types.InsnLabel{Op: types.OpGoto, Target: "nowhere"}),
			want: "body[0]: undefined label :nowhere",
		},
		{
			name: "duplicate label",
			m:    method(types.Label{Name: "a"}, types.Label{Name: "a"}),
			want: "body[1]: label :a declared twice",
		},
		{
			name: "wrong shape",
			m:    method(types.InsnReg{Op: types.OpReturnVoid, A: types.V(0)}),
			want: "return-void does not take types.InsnReg operands",
		},
		{
			name: "literal too wide",
			m:    method(types.InsnConst{Op: types.OpConst4, A: types.V(0), Value: 8}),
			want: "literal 8 does not fit const/4",
		},
		{
			name: "too many registers",
			m: method(types.InsnInvoke{
				Op:   types.OpInvokeStatic,
				Regs: types.RegisterList{Regs: []types.Register{types.V(0), types.V(1), types.V(2), types.V(3), types.V(4), types.V(5)}},
			}),
			want: "invoke-static takes at most 5 registers, got 6",
		},
		{
			name: "range form mismatch",
			m: method(types.InsnInvoke{
				Op:   types.OpInvokeStatic,
				Regs: types.RegisterList{Range: true},
			}),
			want: "register list form does not match the opcode",
		},
		{
			name: "descending range",
			m: method(types.InsnInvoke{
				Op:   types.OpInvokeVirtualRange,
				Regs: types.RegisterList{Range: true, Regs: []types.Register{types.V(3), types.V(1)}},
			}),
			want: "invalid register range {v3 .. v1}",
		},
		{
			name: "switch without payload",
			m: method(
				types.InsnRegLabel{Op: types.OpPackedSwitch, A: types.V(0), Target: "t"},
				types.Label{Name: "t"},
				types.InsnNone{Op: types.OpReturnVoid},
			),
			want: "packed-switch target :t is not followed by .packed-switch",
		},
		{
			name: "array data width",
			m:    method(types.ArrayDataPayload{ElementWidth: 3}),
			want: "element width 3 is not 1, 2, 4 or 8",
		},
		{
			name: "array data value",
			m:    method(types.ArrayDataPayload{ElementWidth: 1, Values: []int64{200}}),
			want: "array-data value 200 (index 0) does not fit 1 bytes",
		},
		{
			name: "catch backwards",
			m: method(
				types.Label{Name: "b"},
				types.Label{Name: "a"},
				types.Label{Name: "h"},
				types.Catch{Start: "a", End: "b", Handler: "h"},
			),
			want: "catch range :a .. :b ends before it starts",
		},
		{
			name: "local without type",
			m:    method(types.LocalStart{Register: types.V(0), Name: new(string)}),
			want: ".local with a name or signature needs a type",
		},
		{
			name: "abstract with body",
			m: types.Method{
				Name:      "m",
				Flags:     types.AccAbstract,
				Signature: types.MethodSignature{Return: types.Void},
				Body:      []types.Instruction{types.InsnNone{Op: types.OpReturnVoid}},
			},
			want: "abstract or native method must not have a body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Method(&tt.m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMethodRegisterFrame(t *testing.T) {
	m := types.Method{
		Name:      "f",
		Flags:     types.AccStatic,
		Signature: types.MethodSignature{Params: []types.TypeSignature{types.Long}, Return: types.Void},
		Directive: types.LocalsDirective,
		Count:     1,
		Body: []types.Instruction{
			types.InsnRegReg{Op: types.OpMoveWide, A: types.V(0), B: types.P(0)},
			types.InsnReg{Op: types.OpReturn, A: types.V(1)},
			types.InsnReg{Op: types.OpReturn, A: types.P(2)},
		},
	}
	err := Method(&m)
	require.Error(t, err)
	assert.Equal(t,
		"body[1]: register v1 outside 1 local registers\nbody[2]: register p2 outside 2 parameter registers",
		err.Error())

	m.Directive = types.NoRegisters
	assert.NoError(t, Method(&m))
}

func method(body ...types.Instruction) types.Method {
	return types.Method{
		Name:      "m",
		Flags:     types.AccStatic,
		Signature: types.MethodSignature{Return: types.Void},
		Body:      body,
	}
}
