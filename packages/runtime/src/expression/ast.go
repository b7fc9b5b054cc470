// Package expression parses and evaluates the binding expression language:
// property access with scope walking, calls, operators, template literals,
// value converters (`|`), binding behaviors (`&`), for-of declarations and
// `${}` interpolation.
package expression

import (
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
)

// Kind discriminates AST nodes
type Kind int

const (
	KindAccessThis Kind = iota
	KindAccessScope
	KindAccessMember
	KindAccessKeyed
	KindCallScope
	KindCallMember
	KindCallFunction
	KindBinary
	KindUnary
	KindConditional
	KindAssign
	KindPrimitiveLiteral
	KindArrayLiteral
	KindObjectLiteral
	KindTemplate
	KindValueConverter
	KindBindingBehavior
	KindBindingIdentifier
	KindArrayBindingPattern
	KindForOf
	KindInterpolation
)

// ValueConverter transforms values flowing to the view
type ValueConverter interface {
	ToView(value any, args ...any) any
}

// FromViewConverter transforms values flowing back from the view
type FromViewConverter interface {
	FromView(value any, args ...any) any
}

// Env supplies what evaluation needs beyond the scope
type Env interface {
	// ValueConverter resolves a registered value converter by name
	ValueConverter(name string) (ValueConverter, error)
	// ObserverLocator routes assignments through registered observers; it may be nil
	ObserverLocator() *observation.ObserverLocator
}

// AST is a parsed expression
type AST interface {
	Kind() Kind
	// Evaluate computes the value, reporting every read to c when c is not nil
	Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error)
	// Assign writes value through the expression
	Assign(s, host *scope.Scope, env Env, value any) error
	String() string
}

// AccessThis is $this (Ancestor 0) or a $parent chain
type AccessThis struct {
	Ancestor int
	// Host selects the host scope ($host)
	Host bool
}

// AccessScope reads Name from the scope chain
type AccessScope struct {
	Name     string
	Ancestor int
	Host     bool
}

// AccessMember reads Name from Object
type AccessMember struct {
	Object   AST
	Name     string
	Optional bool
}

// AccessKeyed reads Object[Key]
type AccessKeyed struct {
	Object   AST
	Key      AST
	Optional bool
}

// CallScope calls the function Name found in the scope chain
type CallScope struct {
	Name     string
	Args     []AST
	Ancestor int
	Host     bool
	Optional bool
}

// CallMember calls Object.Name(Args)
type CallMember struct {
	Object         AST
	Name           string
	Args           []AST
	OptionalMember bool
	OptionalCall   bool
}

// CallFunction calls the value of Func
type CallFunction struct {
	Func     AST
	Args     []AST
	Optional bool
}

// Binary is Left Op Right
type Binary struct {
	Op    string
	Left  AST
	Right AST
}

// Unary is Op Expr
type Unary struct {
	Op   string
	Expr AST
}

// Conditional is Cond ? Yes : No
type Conditional struct {
	Cond AST
	Yes  AST
	No   AST
}

// Assign is Target Op Value where Op is = or a compound assignment
type Assign struct {
	Target AST
	Value  AST
	Op     string
}

// PrimitiveLiteral is a number, string, boolean or null literal
type PrimitiveLiteral struct {
	Value any
}

// ArrayLiteral is [Elements...]
type ArrayLiteral struct {
	Elements []AST
}

// ObjectLiteral is {Keys: Values}
type ObjectLiteral struct {
	Keys   []string
	Values []AST
}

// Template is a template literal; len(Cooked) == len(Expressions)+1
type Template struct {
	Cooked      []string
	Expressions []AST
}

// ValueConverterExpression applies the converter Name to Expr
type ValueConverterExpression struct {
	Expr AST
	Name string
	Args []AST
}

// BindingBehaviorExpression applies the behavior Name to the binding of Expr
type BindingBehaviorExpression struct {
	Expr AST
	Name string
	Args []AST
}

// BindingIdentifier is the local name declared by a for-of
type BindingIdentifier struct {
	Name string
}

// ArrayBindingPattern destructures an item: [key, value] of map
type ArrayBindingPattern struct {
	Elements []string
}

// ForOf is `declaration of iterable`, optionally followed by `; key: prop`
// or `; key.bind: expr`
type ForOf struct {
	Declaration AST
	Iterable    AST
	// KeyProperty names the item property used as the diff key
	KeyProperty string
	// KeyExpr computes the diff key from the item scope
	KeyExpr AST
}

// Interpolation is text with ${} holes; len(Parts) == len(Expressions)+1
type Interpolation struct {
	Parts       []string
	Expressions []AST
}

func (*AccessThis) Kind() Kind                { return KindAccessThis }
func (*AccessScope) Kind() Kind               { return KindAccessScope }
func (*AccessMember) Kind() Kind              { return KindAccessMember }
func (*AccessKeyed) Kind() Kind               { return KindAccessKeyed }
func (*CallScope) Kind() Kind                 { return KindCallScope }
func (*CallMember) Kind() Kind                { return KindCallMember }
func (*CallFunction) Kind() Kind              { return KindCallFunction }
func (*Binary) Kind() Kind                    { return KindBinary }
func (*Unary) Kind() Kind                     { return KindUnary }
func (*Conditional) Kind() Kind               { return KindConditional }
func (*Assign) Kind() Kind                    { return KindAssign }
func (*PrimitiveLiteral) Kind() Kind          { return KindPrimitiveLiteral }
func (*ArrayLiteral) Kind() Kind              { return KindArrayLiteral }
func (*ObjectLiteral) Kind() Kind             { return KindObjectLiteral }
func (*Template) Kind() Kind                  { return KindTemplate }
func (*ValueConverterExpression) Kind() Kind  { return KindValueConverter }
func (*BindingBehaviorExpression) Kind() Kind { return KindBindingBehavior }
func (*BindingIdentifier) Kind() Kind         { return KindBindingIdentifier }
func (*ArrayBindingPattern) Kind() Kind       { return KindArrayBindingPattern }
func (*ForOf) Kind() Kind                     { return KindForOf }
func (*Interpolation) Kind() Kind             { return KindInterpolation }

// DeclareItem defines the for-of local names on oc for one iterated item
func (f *ForOf) DeclareItem(oc *observation.Object, item any) {
	switch d := f.Declaration.(type) {
	case *BindingIdentifier:
		oc.Define(d.Name, item)
	case *ArrayBindingPattern:
		for i, name := range d.Elements {
			oc.Define(name, elementAt(item, i))
		}
	}
}

// LocalName returns the name an iterated item is stored under. For
// destructuring declarations it is the first element.
func (f *ForOf) LocalName() string {
	switch d := f.Declaration.(type) {
	case *BindingIdentifier:
		return d.Name
	case *ArrayBindingPattern:
		if len(d.Elements) > 0 {
			return d.Elements[0]
		}
	}
	return ""
}

// IsSimple reports whether the interpolation is a single expression with no surrounding text
func (i *Interpolation) IsSimple() bool {
	return len(i.Expressions) == 1 && i.Parts[0] == "" && i.Parts[1] == ""
}
