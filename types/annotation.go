package types

// Visibility is the retention keyword of an .annotation block.
type Visibility string

const (
	VisibilityBuild   Visibility = "build"
	VisibilityRuntime Visibility = "runtime"
	VisibilitySystem  Visibility = "system"
)

// ParseVisibility accepts build, runtime and system.
func ParseVisibility(s string) (Visibility, bool) {
	switch v := Visibility(s); v {
	case VisibilityBuild, VisibilityRuntime, VisibilitySystem:
		return v, true
	}
	return "", false
}

// Annotation is an .annotation ... .end annotation block.
type Annotation struct {
	Visibility Visibility
	Type       ObjectIdentifier
	Elements   []AnnotationElement
}

// AnnotationElement is one name = value line of an annotation.
type AnnotationElement struct {
	Name  string
	Value Value
}

// Value is an encoded value as found in annotation elements and field
// initializers. The set is closed.
type Value interface {
	isValue()
}

type (
	ByteValue   int8
	ShortValue  int16
	CharValue   uint16
	IntValue    int32
	LongValue   int64
	FloatValue  float32
	DoubleValue float64
	BoolValue   bool
	// StringValue holds lone surrogates in WTF-8; see StringFromUTF16.
	StringValue string
	NullValue   struct{}

	// TypeValue is a class or array literal (Lfoo; or [I).
	TypeValue struct{ Type TypeSignature }
	// FieldValue is a field reference literal.
	FieldValue struct{ Field FieldRef }
	// MethodValue is a method reference literal.
	MethodValue struct{ Method MethodRef }
	// EnumValue is .enum Lowner;->NAME:Lowner;
	EnumValue struct{ Field FieldRef }
	// ArrayValue is { v1, v2 }.
	ArrayValue []Value
	// SubAnnotationValue is .subannotation ... .end subannotation.
	SubAnnotationValue struct {
		Type     ObjectIdentifier
		Elements []AnnotationElement
	}
	// MethodTypeValue is a bare prototype literal.
	MethodTypeValue struct{ Proto MethodSignature }
	// MethodHandleValue keeps a method handle literal as written.
	MethodHandleValue struct{ Raw string }
)

func (ByteValue) isValue()          {}
func (ShortValue) isValue()         {}
func (CharValue) isValue()          {}
func (IntValue) isValue()           {}
func (LongValue) isValue()          {}
func (FloatValue) isValue()         {}
func (DoubleValue) isValue()        {}
func (BoolValue) isValue()          {}
func (StringValue) isValue()        {}
func (NullValue) isValue()          {}
func (TypeValue) isValue()          {}
func (FieldValue) isValue()         {}
func (MethodValue) isValue()        {}
func (EnumValue) isValue()          {}
func (ArrayValue) isValue()         {}
func (SubAnnotationValue) isValue() {}
func (MethodTypeValue) isValue()    {}
func (MethodHandleValue) isValue()  {}
