package types

import "strings"

// AccessFlags is the Dalvik access_flags bitset. Several flags share a bit
// and are told apart by where they appear: 0x40 is volatile on a field and
// bridge on a method, 0x80 is transient on a field and varargs on a method.
type AccessFlags uint32

const (
	AccPublic               AccessFlags = 0x1
	AccPrivate              AccessFlags = 0x2
	AccProtected            AccessFlags = 0x4
	AccStatic               AccessFlags = 0x8
	AccFinal                AccessFlags = 0x10
	AccSynchronized         AccessFlags = 0x20
	AccVolatile             AccessFlags = 0x40
	AccBridge               AccessFlags = 0x40
	AccTransient            AccessFlags = 0x80
	AccVarargs              AccessFlags = 0x80
	AccNative               AccessFlags = 0x100
	AccInterface            AccessFlags = 0x200
	AccAbstract             AccessFlags = 0x400
	AccStrict               AccessFlags = 0x800
	AccSynthetic            AccessFlags = 0x1000
	AccAnnotation           AccessFlags = 0x2000
	AccEnum                 AccessFlags = 0x4000
	AccConstructor          AccessFlags = 0x10000
	AccDeclaredSynchronized AccessFlags = 0x20000
)

// FlagContext selects which keyword set applies to a bitset.
type FlagContext int

const (
	ClassFlags FlagContext = iota
	FieldFlags
	MethodFlags
)

type flagKeyword struct {
	flag    AccessFlags
	keyword string
	ctx     []FlagContext
}

// Keyword order is the order the writer emits them in.
var flagKeywords = []flagKeyword{
	{AccPublic, "public", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccPrivate, "private", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccProtected, "protected", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccStatic, "static", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccFinal, "final", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccSynchronized, "synchronized", []FlagContext{MethodFlags}},
	{AccVolatile, "volatile", []FlagContext{FieldFlags}},
	{AccBridge, "bridge", []FlagContext{MethodFlags}},
	{AccTransient, "transient", []FlagContext{FieldFlags}},
	{AccVarargs, "varargs", []FlagContext{MethodFlags}},
	{AccNative, "native", []FlagContext{MethodFlags}},
	{AccInterface, "interface", []FlagContext{ClassFlags}},
	{AccAbstract, "abstract", []FlagContext{ClassFlags, MethodFlags}},
	{AccStrict, "strictfp", []FlagContext{MethodFlags}},
	{AccSynthetic, "synthetic", []FlagContext{ClassFlags, FieldFlags, MethodFlags}},
	{AccAnnotation, "annotation", []FlagContext{ClassFlags}},
	{AccEnum, "enum", []FlagContext{ClassFlags, FieldFlags}},
	{AccConstructor, "constructor", []FlagContext{MethodFlags}},
	{AccDeclaredSynchronized, "declared-synchronized", []FlagContext{MethodFlags}},
}

// ParseAccessFlag maps a keyword to its bit. Keywords are accepted in any
// context, as smali does.
func ParseAccessFlag(word string) (AccessFlags, bool) {
	for _, k := range flagKeywords {
		if k.keyword == word {
			return k.flag, true
		}
	}
	return 0, false
}

// Has reports whether every bit of f is set.
func (a AccessFlags) Has(f AccessFlags) bool { return a&f == f }

// Keywords lists the keywords for a in canonical order. Bits with no keyword
// in ctx fall back to the first keyword defined for that bit so that no set
// bit is ever dropped.
func (a AccessFlags) Keywords(ctx FlagContext) []string {
	var out []string
	var seen AccessFlags
	for _, k := range flagKeywords {
		if a&k.flag == 0 || seen&k.flag != 0 || !hasContext(k.ctx, ctx) {
			continue
		}
		seen |= k.flag
		out = append(out, k.keyword)
	}
	if rest := a &^ seen; rest != 0 {
		for _, k := range flagKeywords {
			if rest&k.flag != 0 && seen&k.flag == 0 {
				seen |= k.flag
				out = append(out, k.keyword)
			}
		}
	}
	return out
}

// Format joins Keywords with spaces.
func (a AccessFlags) Format(ctx FlagContext) string {
	return strings.Join(a.Keywords(ctx), " ")
}

func hasContext(list []FlagContext, ctx FlagContext) bool {
	for _, c := range list {
		if c == ctx {
			return true
		}
	}
	return false
}
