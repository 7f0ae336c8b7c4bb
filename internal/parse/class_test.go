package parse

import (
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smalikit/types"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/Test.smali")
	require.NoError(t, err)
	return string(data)
}

func TestClassHeader(t *testing.T) {
	c, err := Class(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "com.basic.Test", c.Name.JavaType())
	assert.Equal(t, "public final", c.Flags.Format(types.ClassFlags))
	require.NotNil(t, c.Super)
	assert.Equal(t, "java.lang.Object", c.Super.JavaType())
	require.NotNil(t, c.Source)
	assert.Equal(t, "Test.java", *c.Source)
	assert.Equal(t, []types.ObjectIdentifier{types.FromJavaType("java.lang.Runnable")}, c.Implements)

	require.Len(t, c.Annotations, 1)
	a := c.Annotations[0]
	assert.Equal(t, types.VisibilitySystem, a.Visibility)
	assert.Equal(t, "dalvik.annotation.MemberClasses", a.Type.JavaType())
	require.Len(t, a.Elements, 1)
	inner := types.ObjectType(types.FromJNIType("Lcom/basic/Test$Inner;"))
	assert.Equal(t, types.ArrayValue{types.TypeValue{Type: inner}}, a.Elements[0].Value)
}

func TestClassFields(t *testing.T) {
	c, err := Class(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, c.Fields, 3)

	name := c.Fields[0]
	assert.Equal(t, "NAME", name.Name)
	assert.Equal(t, "public static final", name.Flags.Format(types.FieldFlags))
	assert.Equal(t, types.StringValue("smali\n\"kit\""), name.Initial)

	assert.Equal(t, types.IntValue(42), c.Fields[1].Initial)

	values := c.Fields[2]
	assert.Equal(t, "[J", values.Type.JNI())
	assert.Nil(t, values.Initial)
	require.Len(t, values.Annotations, 1)
	elems := values.Annotations[0].Elements
	require.Len(t, elems, 2)
	assert.Equal(t, types.ByteValue(3), elems[0].Value)
	kind := types.ObjectType(types.FromJavaType("com.basic.Kind"))
	assert.Equal(t, types.EnumValue{Field: types.FieldRef{Owner: kind, Name: "FAST", Type: kind}}, elems[1].Value)
}

func TestClassMethods(t *testing.T) {
	c, err := Class(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, c.Methods, 3)

	ctor := c.Methods[0]
	assert.True(t, ctor.IsConstructor())
	assert.Equal(t, types.RegistersDirective, ctor.Directive)
	assert.Equal(t, 1, ctor.Count)
	require.Len(t, ctor.Body, 2)
	inv, ok := ctor.Body[0].(types.InsnInvoke)
	require.True(t, ok)
	assert.Equal(t, types.OpInvokeDirect, inv.Op)
	assert.Equal(t, []types.Register{types.P(0)}, inv.Regs.Regs)
	assert.Equal(t, "Ljava/lang/Object;-><init>()V", inv.Method.String())

	sum := c.Methods[1]
	assert.True(t, sum.IsStatic())
	assert.Equal(t, types.LocalsDirective, sum.Directive)
	assert.Equal(t, 5, sum.TotalRegisters())
	require.Len(t, sum.Params, 1)
	assert.Equal(t, "values", *sum.Params[0].Name)
	assert.Empty(t, sum.Params[0].Annotations, "annotation without .end param belongs to the method")
	require.Len(t, sum.Annotations, 1)
	assert.Equal(t, "com.basic.Pure", sum.Annotations[0].Type.JavaType())
	assert.Equal(t, types.Prologue{}, sum.Body[0])
	assert.Equal(t, types.LineNumber{Line: 10}, sum.Body[1])
	assert.Contains(t, sum.Labels(), "loop")
	locals := sum.LocalVariables()
	require.Len(t, locals, 1)
	assert.Equal(t, "total", *locals[0].Name)
	assert.Equal(t, types.KindInt, locals[0].Type.Kind)

	run := c.Methods[2]
	tc := run.TryCatches()
	require.Len(t, tc, 1)
	assert.Equal(t, "java.lang.Exception", tc[0].Exception.JavaType())
	assert.Equal(t, "try_start_0", tc[0].Start)
	assert.Equal(t, "handler_0", tc[0].Handler)

	var packed *types.PackedSwitchPayload
	var array *types.ArrayDataPayload
	var wide *types.InsnConst
	for _, in := range run.Instructions() {
		switch x := in.(type) {
		case types.PackedSwitchPayload:
			packed = &x
		case types.ArrayDataPayload:
			array = &x
		case types.InsnConst:
			if x.Op == types.OpConstWide {
				wide = &x
			}
		}
	}
	require.NotNil(t, packed)
	assert.Equal(t, int32(1), packed.FirstKey)
	assert.Equal(t, []string{"pswitch_0"}, packed.Targets)
	require.NotNil(t, array)
	assert.Equal(t, 4, array.ElementWidth)
	assert.Equal(t, []int64{1, 2}, array.Values)
	require.NotNil(t, wide)
	assert.Equal(t, int64(16), wide.Value)
}

func TestClassCRLF(t *testing.T) {
	src := loadFixture(t)
	lf, err := Class(src)
	require.NoError(t, err)
	crlf, err := Class(strings.ReplaceAll(src, "\n", "\r\n"))
	require.NoError(t, err)
	assert.Equal(t, lf, crlf)
}

func TestFieldAnnotationOwnership(t *testing.T) {
	src := `.class LA;
.super Ljava/lang/Object;
.field private x:I
.annotation runtime LMarker;
.end annotation
.field private y:I
    .annotation runtime LOwned;
    .end annotation
.end field
`
	c, err := Class(src)
	require.NoError(t, err)
	require.Len(t, c.Fields, 2)
	assert.Empty(t, c.Fields[0].Annotations)
	require.Len(t, c.Annotations, 1)
	assert.Equal(t, "Marker", c.Annotations[0].Type.JavaType())
	require.Len(t, c.Fields[1].Annotations, 1)
	assert.Equal(t, "Owned", c.Fields[1].Annotations[0].Type.JavaType())
}

func TestParamAnnotationOwnership(t *testing.T) {
	src := `.class LA;
.super Ljava/lang/Object;
.method public f(I)V
    .registers 2
    .param p1, "x"
        .annotation runtime LNonNull;
        .end annotation
    .end param
    return-void
.end method
`
	c, err := Class(src)
	require.NoError(t, err)
	m := c.Methods[0]
	require.Len(t, m.Params, 1)
	require.Len(t, m.Params[0].Annotations, 1)
	assert.Empty(t, m.Annotations)
}

func TestClassErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		line int
	}{
		{"empty", "", types.ErrStructural, 1},
		{"no class", ".super Ljava/lang/Object;\n", types.ErrStructural, 1},
		{"duplicate class", ".class LA;\n.class LB;\n", types.ErrStructural, 2},
		{"duplicate super", ".class LA;\n.super LB;\n.super LC;\n", types.ErrStructural, 3},
		{"missing end method", ".class LA;\n.super LB;\n.method f()V\n    return-void\n", types.ErrStructural, 3},
		{"method runs into method", ".class LA;\n.method f()V\n.method g()V\n.end method\n", types.ErrStructural, 2},
		{"bad descriptor", ".class LA\n", types.ErrLexical, 1},
		{"descriptor runs past line end", ".class public LA;\n.super Ljava/lang/Object;\n.implements LFoo\n.implements LBar;\n", types.ErrLexical, 3},
		{"space in class name", ".class LA;\n.super Ljava/lang/Object;\n.field f:La b; = null\n", types.ErrLexical, 3},
		{"unknown opcode", ".class LA;\n.method f()V\n    frobnicate v0\n.end method\n", types.ErrLexical, 3},
		{"literal too wide", ".class LA;\n.method f()V\n    const/4 v0, 0x10\n.end method\n", types.ErrLexical, 3},
		{"unterminated annotation", ".class LA;\n.annotation runtime LB;\n", types.ErrStructural, 2},
		{"bad visibility", ".class LA;\n.annotation public LB;\n.end annotation\n", types.ErrLexical, 2},
		{"unterminated string", ".class LA;\n.source \"x\n", types.ErrLexical, 2},
		{"range without range opcode", ".class LA;\n.method f()V\n    invoke-static {v0 .. v1}, LA;->g()V\n.end method\n", types.ErrLexical, 3},
		{"too many registers", ".class LA;\n.method f()V\n    invoke-static {v0, v1, v2, v3, v4, v5}, LA;->g()V\n.end method\n", types.ErrLexical, 3},
		{"unterminated payload", ".class LA;\n.method f()V\n    .packed-switch 0x0\n        :a\n.end method\n", types.ErrStructural, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Class(tc.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			var pe *types.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.line, pe.Line, pe.Error())
		})
	}
}

func TestLiterals(t *testing.T) {
	src := `.class LA;
.field a:B = -0x80t
.field b:S = 0x7fffs
.field c:J = -0x1L
.field d:F = 1.5f
.field e:D = -2.25
.field f:C = '\u00e9'
.field g:Z = true
.field h:Ljava/lang/Object; = null
.field i:I = 0xffffffff
.field j:F = -Infinityf
`
	c, err := Class(src)
	require.NoError(t, err)
	want := []types.Value{
		types.ByteValue(-128),
		types.ShortValue(32767),
		types.LongValue(-1),
		types.FloatValue(1.5),
		types.DoubleValue(-2.25),
		types.CharValue(0xe9),
		types.BoolValue(true),
		types.NullValue{},
		types.IntValue(-1),
		types.FloatValue(float32(math.Inf(-1))),
	}
	require.Len(t, c.Fields, len(want))
	for i, w := range want {
		assert.Equal(t, w, c.Fields[i].Initial, c.Fields[i].Name)
	}
}
