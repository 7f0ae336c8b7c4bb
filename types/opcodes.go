package types

// Opcode is a Dalvik opcode value as it appears in a dex file.
type Opcode uint8

// Format is the operand shape of an opcode as written in smali.
type Format uint8

const (
	FormatInvalid         Format = iota
	FormatNone                   // return-void
	FormatReg                    // move-result v0
	FormatRegReg                 // move v0, v1
	FormatRegRegReg              // add-int v0, v1, v2
	FormatRegLiteral             // const/4 v0, 0x1
	FormatRegString              // const-string v0, "s"
	FormatRegType                // new-instance v0, Lfoo;
	FormatRegRegType             // instance-of v0, v1, Lfoo;
	FormatRegListType            // filled-new-array {v0, v1}, [I
	FormatLabel                  // goto :l
	FormatRegLabel               // if-eqz v0, :l
	FormatRegRegLabel            // if-eq v0, v1, :l
	FormatRegField               // sget v0, Lfoo;->f:I
	FormatRegRegField            // iget v0, v1, Lfoo;->f:I
	FormatRegListMethod          // invoke-virtual {v0}, Lfoo;->m()V
	FormatRegListMethodProto     // invoke-polymorphic {v0}, Lfoo;->m([Ljava/lang/Object;)Ljava/lang/Object;, (I)V
	FormatRegListCallSite        // invoke-custom {v0}, call_site_0(...)@Lfoo;->bsm(...)
	FormatRegRegLiteral          // add-int/lit8 v0, v1, 0x1
	FormatRegMethodHandle        // const-method-handle v0, invoke-static@Lfoo;->m()V
	FormatRegProto               // const-method-type v0, (I)V
)

// LiteralWidth tells how a FormatRegLiteral/FormatRegRegLiteral operand is
// encoded and which values it can hold.
type LiteralWidth uint8

const (
	LitNone       LiteralWidth = iota
	LitNibble                  // signed 4 bits
	LitByte                    // signed 8 bits
	LitShort                   // signed 16 bits
	LitInt                     // signed 32 bits
	LitHigh16                  // 32-bit value whose low 16 bits are zero
	LitLong                    // signed 64 bits
	LitWideHigh16              // 64-bit value whose low 48 bits are zero
)

// Fits reports whether v can be encoded with width w.
func (w LiteralWidth) Fits(v int64) bool {
	switch w {
	case LitNibble:
		return v >= -8 && v <= 7
	case LitByte:
		return v >= -128 && v <= 127
	case LitShort:
		return v >= -32768 && v <= 32767
	case LitInt:
		return v >= -1<<31 && v <= 1<<31-1
	case LitHigh16:
		return v >= -1<<31 && v <= 1<<31-1 && v&0xffff == 0
	case LitWideHigh16:
		return v&0xffffffffffff == 0
	case LitLong:
		return true
	}
	return false
}

// OpInfo describes one opcode.
type OpInfo struct {
	Name    string
	Format  Format
	Range   bool         // register list is written as {vA .. vB}
	Literal LiteralWidth // literal encoding for literal formats
	Wide    bool         // const-wide family: literal is rendered with an L suffix
}

const (
	OpNop                  Opcode = 0x00
	OpMove                 Opcode = 0x01
	OpMoveFrom16           Opcode = 0x02
	OpMove16               Opcode = 0x03
	OpMoveWide             Opcode = 0x04
	OpMoveWideFrom16       Opcode = 0x05
	OpMoveWide16           Opcode = 0x06
	OpMoveObject           Opcode = 0x07
	OpMoveObjectFrom16     Opcode = 0x08
	OpMoveObject16         Opcode = 0x09
	OpMoveResult           Opcode = 0x0a
	OpMoveResultWide       Opcode = 0x0b
	OpMoveResultObject     Opcode = 0x0c
	OpMoveException        Opcode = 0x0d
	OpReturnVoid           Opcode = 0x0e
	OpReturn               Opcode = 0x0f
	OpReturnWide           Opcode = 0x10
	OpReturnObject         Opcode = 0x11
	OpConst4               Opcode = 0x12
	OpConst16              Opcode = 0x13
	OpConst                Opcode = 0x14
	OpConstHigh16          Opcode = 0x15
	OpConstWide16          Opcode = 0x16
	OpConstWide32          Opcode = 0x17
	OpConstWide            Opcode = 0x18
	OpConstWideHigh16      Opcode = 0x19
	OpConstString          Opcode = 0x1a
	OpConstStringJumbo     Opcode = 0x1b
	OpConstClass           Opcode = 0x1c
	OpMonitorEnter         Opcode = 0x1d
	OpMonitorExit          Opcode = 0x1e
	OpCheckCast            Opcode = 0x1f
	OpInstanceOf           Opcode = 0x20
	OpArrayLength          Opcode = 0x21
	OpNewInstance          Opcode = 0x22
	OpNewArray             Opcode = 0x23
	OpFilledNewArray       Opcode = 0x24
	OpFilledNewArrayRange  Opcode = 0x25
	OpFillArrayData        Opcode = 0x26
	OpThrow                Opcode = 0x27
	OpGoto                 Opcode = 0x28
	OpGoto16               Opcode = 0x29
	OpGoto32               Opcode = 0x2a
	OpPackedSwitch         Opcode = 0x2b
	OpSparseSwitch         Opcode = 0x2c
	OpCmplFloat            Opcode = 0x2d
	OpCmpLong              Opcode = 0x31
	OpIfEq                 Opcode = 0x32
	OpIfLe                 Opcode = 0x37
	OpIfEqz                Opcode = 0x38
	OpIfNez                Opcode = 0x39
	OpIfLez                Opcode = 0x3d
	OpAget                 Opcode = 0x44
	OpAput                 Opcode = 0x4b
	OpAputObject           Opcode = 0x4d
	OpIget                 Opcode = 0x52
	OpIgetObject           Opcode = 0x54
	OpIput                 Opcode = 0x59
	OpIputObject           Opcode = 0x5b
	OpSget                 Opcode = 0x60
	OpSgetObject           Opcode = 0x62
	OpSput                 Opcode = 0x67
	OpSputObject           Opcode = 0x69
	OpInvokeVirtual        Opcode = 0x6e
	OpInvokeSuper          Opcode = 0x6f
	OpInvokeDirect         Opcode = 0x70
	OpInvokeStatic         Opcode = 0x71
	OpInvokeInterface      Opcode = 0x72
	OpReturnVoidNoBarrier  Opcode = 0x73
	OpInvokeVirtualRange   Opcode = 0x74
	OpInvokeInterfaceRange Opcode = 0x78
	OpNegInt               Opcode = 0x7b
	OpIntToShort           Opcode = 0x8f
	OpAddInt               Opcode = 0x90
	OpRemDouble            Opcode = 0xaf
	OpAddInt2Addr          Opcode = 0xb0
	OpRemDouble2Addr       Opcode = 0xcf
	OpAddIntLit16          Opcode = 0xd0
	OpXorIntLit16          Opcode = 0xd7
	OpAddIntLit8           Opcode = 0xd8
	OpUshrIntLit8          Opcode = 0xe2
	OpInvokePolymorphic    Opcode = 0xfa
	OpInvokePolymorphicRng Opcode = 0xfb
	OpInvokeCustom         Opcode = 0xfc
	OpInvokeCustomRange    Opcode = 0xfd
	OpConstMethodHandle    Opcode = 0xfe
	OpConstMethodType      Opcode = 0xff
)

var (
	opTable  [256]OpInfo
	opByName = make(map[string]Opcode, 230)
)

func init() {
	set := func(op Opcode, info OpInfo) {
		opTable[op] = info
		opByName[info.Name] = op
	}
	simple := func(op Opcode, f Format, names ...string) {
		for i, n := range names {
			set(op+Opcode(i), OpInfo{Name: n, Format: f})
		}
	}

	simple(OpNop, FormatNone, "nop")
	simple(OpMove, FormatRegReg,
		"move", "move/from16", "move/16",
		"move-wide", "move-wide/from16", "move-wide/16",
		"move-object", "move-object/from16", "move-object/16")
	simple(OpMoveResult, FormatReg, "move-result", "move-result-wide", "move-result-object", "move-exception")
	simple(OpReturnVoid, FormatNone, "return-void")
	simple(OpReturn, FormatReg, "return", "return-wide", "return-object")

	set(OpConst4, OpInfo{Name: "const/4", Format: FormatRegLiteral, Literal: LitNibble})
	set(OpConst16, OpInfo{Name: "const/16", Format: FormatRegLiteral, Literal: LitShort})
	set(OpConst, OpInfo{Name: "const", Format: FormatRegLiteral, Literal: LitInt})
	set(OpConstHigh16, OpInfo{Name: "const/high16", Format: FormatRegLiteral, Literal: LitHigh16})
	set(OpConstWide16, OpInfo{Name: "const-wide/16", Format: FormatRegLiteral, Literal: LitShort})
	set(OpConstWide32, OpInfo{Name: "const-wide/32", Format: FormatRegLiteral, Literal: LitInt})
	set(OpConstWide, OpInfo{Name: "const-wide", Format: FormatRegLiteral, Literal: LitLong, Wide: true})
	set(OpConstWideHigh16, OpInfo{Name: "const-wide/high16", Format: FormatRegLiteral, Literal: LitWideHigh16, Wide: true})

	simple(OpConstString, FormatRegString, "const-string", "const-string/jumbo")
	simple(OpConstClass, FormatRegType, "const-class")
	simple(OpMonitorEnter, FormatReg, "monitor-enter", "monitor-exit")
	simple(OpCheckCast, FormatRegType, "check-cast")
	simple(OpInstanceOf, FormatRegRegType, "instance-of")
	simple(OpArrayLength, FormatRegReg, "array-length")
	simple(OpNewInstance, FormatRegType, "new-instance")
	simple(OpNewArray, FormatRegRegType, "new-array")
	set(OpFilledNewArray, OpInfo{Name: "filled-new-array", Format: FormatRegListType})
	set(OpFilledNewArrayRange, OpInfo{Name: "filled-new-array/range", Format: FormatRegListType, Range: true})
	simple(OpFillArrayData, FormatRegLabel, "fill-array-data")
	simple(OpThrow, FormatReg, "throw")
	simple(OpGoto, FormatLabel, "goto", "goto/16", "goto/32")
	simple(OpPackedSwitch, FormatRegLabel, "packed-switch", "sparse-switch")
	simple(OpCmplFloat, FormatRegRegReg, "cmpl-float", "cmpg-float", "cmpl-double", "cmpg-double", "cmp-long")
	simple(OpIfEq, FormatRegRegLabel, "if-eq", "if-ne", "if-lt", "if-ge", "if-gt", "if-le")
	simple(OpIfEqz, FormatRegLabel, "if-eqz", "if-nez", "if-ltz", "if-gez", "if-gtz", "if-lez")

	suffixes := []string{"", "-wide", "-object", "-boolean", "-byte", "-char", "-short"}
	for i, s := range suffixes {
		simple(OpAget+Opcode(i), FormatRegRegReg, "aget"+s)
		simple(OpAput+Opcode(i), FormatRegRegReg, "aput"+s)
		simple(OpIget+Opcode(i), FormatRegRegField, "iget"+s)
		simple(OpIput+Opcode(i), FormatRegRegField, "iput"+s)
		simple(OpSget+Opcode(i), FormatRegField, "sget"+s)
		simple(OpSput+Opcode(i), FormatRegField, "sput"+s)
	}

	kinds := []string{"virtual", "super", "direct", "static", "interface"}
	for i, k := range kinds {
		set(OpInvokeVirtual+Opcode(i), OpInfo{Name: "invoke-" + k, Format: FormatRegListMethod})
		set(OpInvokeVirtualRange+Opcode(i), OpInfo{Name: "invoke-" + k + "/range", Format: FormatRegListMethod, Range: true})
	}
	simple(OpReturnVoidNoBarrier, FormatNone, "return-void-no-barrier")

	simple(OpNegInt, FormatRegReg,
		"neg-int", "not-int", "neg-long", "not-long", "neg-float", "neg-double",
		"int-to-long", "int-to-float", "int-to-double",
		"long-to-int", "long-to-float", "long-to-double",
		"float-to-int", "float-to-long", "float-to-double",
		"double-to-int", "double-to-long", "double-to-float",
		"int-to-byte", "int-to-char", "int-to-short")

	var binops []string
	for _, t := range []string{"int", "long"} {
		for _, op := range []string{"add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr", "ushr"} {
			binops = append(binops, op+"-"+t)
		}
	}
	for _, t := range []string{"float", "double"} {
		for _, op := range []string{"add", "sub", "mul", "div", "rem"} {
			binops = append(binops, op+"-"+t)
		}
	}
	simple(OpAddInt, FormatRegRegReg, binops...)
	for i, n := range binops {
		simple(OpAddInt2Addr+Opcode(i), FormatRegReg, n+"/2addr")
	}

	lit16 := []string{"add-int/lit16", "rsub-int", "mul-int/lit16", "div-int/lit16",
		"rem-int/lit16", "and-int/lit16", "or-int/lit16", "xor-int/lit16"}
	for i, n := range lit16 {
		set(OpAddIntLit16+Opcode(i), OpInfo{Name: n, Format: FormatRegRegLiteral, Literal: LitShort})
	}
	lit8 := []string{"add-int/lit8", "rsub-int/lit8", "mul-int/lit8", "div-int/lit8", "rem-int/lit8",
		"and-int/lit8", "or-int/lit8", "xor-int/lit8", "shl-int/lit8", "shr-int/lit8", "ushr-int/lit8"}
	for i, n := range lit8 {
		set(OpAddIntLit8+Opcode(i), OpInfo{Name: n, Format: FormatRegRegLiteral, Literal: LitByte})
	}

	set(OpInvokePolymorphic, OpInfo{Name: "invoke-polymorphic", Format: FormatRegListMethodProto})
	set(OpInvokePolymorphicRng, OpInfo{Name: "invoke-polymorphic/range", Format: FormatRegListMethodProto, Range: true})
	set(OpInvokeCustom, OpInfo{Name: "invoke-custom", Format: FormatRegListCallSite})
	set(OpInvokeCustomRange, OpInfo{Name: "invoke-custom/range", Format: FormatRegListCallSite, Range: true})
	simple(OpConstMethodHandle, FormatRegMethodHandle, "const-method-handle")
	simple(OpConstMethodType, FormatRegProto, "const-method-type")
}

// LookupOpcode finds an opcode by its smali mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opByName[name]
	return op, ok
}

// Info returns the table entry for op. Unassigned opcodes have
// FormatInvalid.
func (op Opcode) Info() OpInfo { return opTable[op] }

// Name is the smali mnemonic.
func (op Opcode) Name() string { return opTable[op].Name }

// Format is the operand shape.
func (op Opcode) Format() Format { return opTable[op].Format }

// Valid reports whether op is an assigned opcode.
func (op Opcode) Valid() bool { return opTable[op].Format != FormatInvalid }

func (op Opcode) String() string {
	if n := opTable[op].Name; n != "" {
		return n
	}
	return "unknown"
}
