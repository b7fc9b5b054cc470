package expression

import (
	"fmt"
	"strconv"
	"strings"

	"au-go/packages/runtime/src/util"
)

func joinAST(list []AST, sep string) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func ancestorPrefix(ancestor int, host bool) string {
	if host {
		return "$host."
	}
	return strings.Repeat("$parent.", ancestor)
}

func (a *AccessThis) String() string {
	switch {
	case a.Host:
		return "$host"
	case a.Ancestor == 0:
		return "$this"
	}
	return strings.TrimSuffix(strings.Repeat("$parent.", a.Ancestor), ".")
}

func (a *AccessScope) String() string {
	return ancestorPrefix(a.Ancestor, a.Host) + a.Name
}

func (a *AccessMember) String() string {
	if a.Optional {
		return a.Object.String() + "?." + a.Name
	}
	return a.Object.String() + "." + a.Name
}

func (a *AccessKeyed) String() string {
	if a.Optional {
		return fmt.Sprintf("%s?.[%s]", a.Object, a.Key)
	}
	return fmt.Sprintf("%s[%s]", a.Object, a.Key)
}

func (a *CallScope) String() string {
	return fmt.Sprintf("%s%s(%s)", ancestorPrefix(a.Ancestor, a.Host), a.Name, joinAST(a.Args, ","))
}

func (a *CallMember) String() string {
	sep := "."
	if a.OptionalMember {
		sep = "?."
	}
	return fmt.Sprintf("%s%s%s(%s)", a.Object, sep, a.Name, joinAST(a.Args, ","))
}

func (a *CallFunction) String() string {
	return fmt.Sprintf("%s(%s)", a.Func, joinAST(a.Args, ","))
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s%s%s)", b.Left, spaced(b.Op), b.Right)
}

func spaced(op string) string {
	switch op {
	case "in", "instanceof":
		return " " + op + " "
	}
	return op
}

func (u *Unary) String() string {
	switch u.Op {
	case "typeof", "void":
		return fmt.Sprintf("(%s %s)", u.Op, u.Expr)
	}
	return fmt.Sprintf("(%s%s)", u.Op, u.Expr)
}

func (e *Conditional) String() string {
	return fmt.Sprintf("(%s?%s:%s)", e.Cond, e.Yes, e.No)
}

func (a *Assign) String() string {
	op := a.Op
	if op == "" {
		op = "="
	}
	return fmt.Sprintf("%s%s%s", a.Target, op, a.Value)
}

func (p *PrimitiveLiteral) String() string {
	switch v := p.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	}
	return util.Stringify(p.Value)
}

func (a *ArrayLiteral) String() string {
	return "[" + joinAST(a.Elements, ",") + "]"
}

func (o *ObjectLiteral) String() string {
	parts := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		parts[i] = k + ":" + o.Values[i].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (t *Template) String() string {
	var b strings.Builder
	b.WriteByte('`')
	b.WriteString(t.Cooked[0])
	for i, e := range t.Expressions {
		b.WriteString("${" + e.String() + "}")
		b.WriteString(t.Cooked[i+1])
	}
	b.WriteByte('`')
	return b.String()
}

func withArgs(args []AST) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteByte(':')
		b.WriteString(a.String())
	}
	return b.String()
}

func (v *ValueConverterExpression) String() string {
	return fmt.Sprintf("%s|%s%s", v.Expr, v.Name, withArgs(v.Args))
}

func (b *BindingBehaviorExpression) String() string {
	return fmt.Sprintf("%s&%s%s", b.Expr, b.Name, withArgs(b.Args))
}

func (b *BindingIdentifier) String() string {
	return b.Name
}

func (p *ArrayBindingPattern) String() string {
	return "[" + strings.Join(p.Elements, ",") + "]"
}

func (f *ForOf) String() string {
	switch {
	case f.KeyExpr != nil:
		return fmt.Sprintf("%s of %s; key.bind: %s", f.Declaration, f.Iterable, f.KeyExpr)
	case f.KeyProperty != "":
		return fmt.Sprintf("%s of %s; key: %s", f.Declaration, f.Iterable, f.KeyProperty)
	}
	return fmt.Sprintf("%s of %s", f.Declaration, f.Iterable)
}

func (i *Interpolation) String() string {
	var b strings.Builder
	b.WriteString(i.Parts[0])
	for n, e := range i.Expressions {
		b.WriteString("${" + e.String() + "}")
		b.WriteString(i.Parts[n+1])
	}
	return b.String()
}
