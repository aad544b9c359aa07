package ast

import "strings"

// Opcode is the dispatch key of an element, resolved once from its tag.
type Opcode int

const (
	OpUnknown Opcode = iota
	OpProgram
	OpNull
	OpStr
	OpSpace
	OpInt
	OpFloat
	OpBool
	OpTrue
	OpFalse
	OpType
	OpPrint
	OpReadline
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpNot
	OpAbs
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpStartsWith
	OpEndsWith
	OpContains
	OpGet
	OpSet
	OpSpecial
	OpFunction
	OpCall
	OpBreak
	OpContinue
	OpExit
	OpBlock
	OpIf
	OpLoop
	OpTry
	OpThrow
	OpUnwrap
	OpDelay

	// Structural tags, only meaningful inside their owner.
	OpCondition
	OpThen
	OpElif
	OpElse
	OpDo
	OpCatch
)

var opcodesByTag = map[string]Opcode{
	"program":     OpProgram,
	"null":        OpNull,
	"":            OpStr,
	"str":         OpStr,
	"string":      OpStr,
	"space":       OpSpace,
	"int":         OpInt,
	"integer":     OpInt,
	"float":       OpFloat,
	"bool":        OpBool,
	"true":        OpTrue,
	"false":       OpFalse,
	"type":        OpType,
	"print":       OpPrint,
	"readline":    OpReadline,
	"add":         OpAdd,
	"sum":         OpAdd,
	"sub":         OpSub,
	"subtract":    OpSub,
	"difference":  OpSub,
	"mul":         OpMul,
	"multiply":    OpMul,
	"product":     OpMul,
	"div":         OpDiv,
	"divide":      OpDiv,
	"quotient":    OpDiv,
	"mod":         OpMod,
	"modulo":      OpMod,
	"remainder":   OpMod,
	"neg":         OpNeg,
	"negate":      OpNeg,
	"negative":    OpNeg,
	"not":         OpNot,
	"abs":         OpAbs,
	"absolute":    OpAbs,
	"eq":          OpEq,
	"ne":          OpNe,
	"lt":          OpLt,
	"le":          OpLe,
	"gt":          OpGt,
	"ge":          OpGe,
	"and":         OpAnd,
	"or":          OpOr,
	"starts-with": OpStartsWith,
	"ends-with":   OpEndsWith,
	"contains":    OpContains,
	"get":         OpGet,
	"set":         OpSet,
	"special":     OpSpecial,
	"function":    OpFunction,
	"call":        OpCall,
	"return":      OpBreak,
	"break":       OpBreak,
	"continue":    OpContinue,
	"next":        OpContinue,
	"exit":        OpExit,
	"block":       OpBlock,
	"if":          OpIf,
	"loop":        OpLoop,
	"try":         OpTry,
	"throw":       OpThrow,
	"unwrap":      OpUnwrap,
	"expect":      OpUnwrap,
	"delay":       OpDelay,
	"sleep":       OpDelay,
	"condition":   OpCondition,
	"then":        OpThen,
	"elif":        OpElif,
	"else":        OpElse,
	"do":          OpDo,
	"catch":       OpCatch,
}

// LookupOpcode maps a tag to its opcode, ignoring case.
func LookupOpcode(tag string) Opcode {
	if op, ok := opcodesByTag[strings.ToLower(tag)]; ok {
		return op
	}
	return OpUnknown
}

// IsStructural reports whether op only appears as a child of if or try.
func (op Opcode) IsStructural() bool {
	return op >= OpCondition
}

// Owner names the element a structural tag belongs to.
func (op Opcode) Owner() string {
	switch op {
	case OpCondition, OpThen, OpElif, OpElse:
		return "if"
	case OpDo, OpCatch:
		return "try"
	}
	return ""
}
