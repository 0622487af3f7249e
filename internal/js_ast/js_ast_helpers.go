package js_ast

import (
	"github.com/globalmod/globalmod/internal/helpers"
	"github.com/globalmod/globalmod/internal/logger"
)

func Assign(a Expr, b Expr) Expr {
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpAssign, Left: a, Right: b}}
}

func AssignStmt(a Expr, b Expr) Stmt {
	return Stmt{Loc: a.Loc, Data: &SExpr{Value: Assign(a, b)}}
}

func JoinWithComma(a Expr, b Expr) Expr {
	if a.Data == nil {
		return b
	}
	if b.Data == nil {
		return a
	}
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpComma, Left: a, Right: b}}
}

func JoinAllWithComma(all []Expr) (result Expr) {
	for _, value := range all {
		result = JoinWithComma(result, value)
	}
	return
}

func StringExpr(loc logger.Loc, text string) Expr {
	return Expr{Loc: loc, Data: &EString{Value: helpers.StringToUTF16(text)}}
}

// Returns the string value and true if this is a string literal, including a
// template literal without any substitutions
func StringValue(expr Expr) ([]uint16, bool) {
	switch e := expr.Data.(type) {
	case *EString:
		return e.Value, true
	}
	return nil, false
}

// Calls "visit" on every identifier bound by a binding pattern, in source
// order
func ForEachIdentifierBinding(binding Binding, visit func(loc logger.Loc, b *BIdentifier)) {
	switch b := binding.Data.(type) {
	case *BMissing:

	case *BIdentifier:
		visit(binding.Loc, b)

	case *BArray:
		for _, item := range b.Items {
			ForEachIdentifierBinding(item.Binding, visit)
		}

	case *BObject:
		for _, property := range b.Properties {
			ForEachIdentifierBinding(property.Value, visit)
		}

	default:
		panic("Internal error")
	}
}

func IsPrimitiveLiteral(data E) bool {
	switch data.(type) {
	case *ENull, *EUndefined, *EString, *EBoolean, *ENumber, *EBigInt:
		return true
	}
	return false
}
