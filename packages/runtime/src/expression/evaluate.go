package expression

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/util"
)

var (
	// ErrNotAssignable is returned when assigning through a read-only expression
	ErrNotAssignable = errors.New("expression is not assignable")
	// ErrNotFunction is returned when calling a value that is not a function
	ErrNotFunction = errors.New("value is not a function")
	// ErrNoConverter is returned when a value converter cannot be resolved
	ErrNoConverter = errors.New("value converter not found")
)

func pick(s, host *scope.Scope, useHost bool) *scope.Scope {
	if useHost {
		return host
	}
	return s
}

func setProperty(env Env, obj any, key string, value any) error {
	if env != nil {
		if l := env.ObserverLocator(); l != nil {
			return l.SetValue(obj, key, value)
		}
	}
	return observation.SetProperty(obj, key, value)
}

func observable(v any) bool {
	switch v.(type) {
	case nil, string, bool:
		return false
	}
	_, isNumber := observation.ToFloat(v)
	return !isNumber
}

func evalArgs(args []AST, s, host *scope.Scope, env Env, c observation.Connectable) ([]any, error) {
	values := make([]any, len(args))
	for i, a := range args {
		v, err := a.Evaluate(s, host, env, c)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (a *AccessThis) Evaluate(s, host *scope.Scope, _ Env, _ observation.Connectable) (any, error) {
	cur := scope.Ancestor(pick(s, host, a.Host), a.Ancestor)
	if cur == nil {
		return nil, nil
	}
	return cur.BindingContext, nil
}

func (a *AccessThis) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, a)
}

func (a *AccessScope) Evaluate(s, host *scope.Scope, _ Env, c observation.Connectable) (any, error) {
	ctx := scope.GetContext(pick(s, host, a.Host), a.Name, a.Ancestor)
	if ctx == nil {
		return nil, nil
	}
	if c != nil {
		c.Observe(ctx, a.Name)
	}
	return observation.Get(ctx, a.Name), nil
}

func (a *AccessScope) Assign(s, host *scope.Scope, env Env, value any) error {
	ctx := scope.GetContext(pick(s, host, a.Host), a.Name, a.Ancestor)
	if ctx == nil {
		return fmt.Errorf("%w: no context for %s", ErrNotAssignable, a)
	}
	return setProperty(env, ctx, a.Name, value)
}

func (a *AccessMember) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	obj, err := a.Object.Evaluate(s, host, env, c)
	if err != nil || obj == nil {
		return nil, err
	}
	if c != nil && observable(obj) {
		c.Observe(obj, a.Name)
	}
	return observation.Get(obj, a.Name), nil
}

func (a *AccessMember) Assign(s, host *scope.Scope, env Env, value any) error {
	obj, err := a.Object.Evaluate(s, host, env, nil)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("%w: %s is nil", ErrNotAssignable, a.Object)
	}
	return setProperty(env, obj, a.Name, value)
}

func (a *AccessKeyed) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	obj, err := a.Object.Evaluate(s, host, env, c)
	if err != nil || obj == nil {
		return nil, err
	}
	key, err := a.Key.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	if c != nil {
		switch o := obj.(type) {
		case *observation.Array, *observation.Map, *observation.Set:
			c.ObserveCollection(o.(observation.Collection))
		default:
			if observable(obj) {
				c.Observe(obj, util.Stringify(key))
			}
		}
	}
	return keyedGet(obj, key), nil
}

func keyedGet(obj, key any) any {
	switch o := obj.(type) {
	case *observation.Array:
		if i, ok := observation.ToFloat(key); ok {
			return o.At(int(i))
		}
		return observation.Get(o, util.Stringify(key))
	case *observation.Map:
		v, _ := o.Get(key)
		return v
	case string:
		if i, ok := observation.ToFloat(key); ok {
			r := []rune(o)
			if int(i) >= 0 && int(i) < len(r) {
				return string(r[int(i)])
			}
			return nil
		}
	}
	if i, ok := observation.ToFloat(key); ok {
		v := reflect.ValueOf(obj)
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			if int(i) >= 0 && int(i) < v.Len() {
				return v.Index(int(i)).Interface()
			}
			return nil
		}
	}
	return observation.Get(obj, util.Stringify(key))
}

func (a *AccessKeyed) Assign(s, host *scope.Scope, env Env, value any) error {
	obj, err := a.Object.Evaluate(s, host, env, nil)
	if err != nil {
		return err
	}
	key, err := a.Key.Evaluate(s, host, env, nil)
	if err != nil {
		return err
	}
	switch o := obj.(type) {
	case nil:
		return fmt.Errorf("%w: %s is nil", ErrNotAssignable, a.Object)
	case *observation.Array:
		if i, ok := observation.ToFloat(key); ok {
			o.Set(int(i), value)
			return nil
		}
	case *observation.Map:
		o.Set(key, value)
		return nil
	}
	if i, ok := observation.ToFloat(key); ok {
		v := reflect.ValueOf(obj)
		if v.Kind() == reflect.Slice && int(i) >= 0 && int(i) < v.Len() {
			elem := v.Index(int(i))
			arg, err := convertArg(value, elem.Type())
			if err != nil {
				return err
			}
			elem.Set(arg)
			return nil
		}
	}
	return setProperty(env, obj, util.Stringify(key), value)
}

func (a *CallScope) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	args, err := evalArgs(a.Args, s, host, env, c)
	if err != nil {
		return nil, err
	}
	ctx := scope.GetContext(pick(s, host, a.Host), a.Name, a.Ancestor)
	fn := observation.Get(ctx, a.Name)
	return callFunction(fn, args, a.Name)
}

func (a *CallScope) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, a)
}

func (a *CallMember) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	obj, err := a.Object.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	args, err := evalArgs(a.Args, s, host, env, c)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	if fn, ok := observation.Lookup(obj, a.Name); ok {
		return callFunction(fn, args, a.Name)
	}
	if v, ok, err := mutate(obj, a.Name, args); ok {
		return v, err
	}
	if v, ok := callBuiltin(obj, a.Name, args, c); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s has no method %s", ErrNotFunction, a.Object, a.Name)
}

func (a *CallMember) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, a)
}

func (a *CallFunction) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	fn, err := a.Func.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	args, err := evalArgs(a.Args, s, host, env, c)
	if err != nil {
		return nil, err
	}
	return callFunction(fn, args, a.Func.String())
}

func (a *CallFunction) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, a)
}

func callFunction(fn any, args []any, name string) (any, error) {
	switch f := fn.(type) {
	case nil:
		return nil, nil
	case func(...any) any:
		return f(args...), nil
	case func(...any) (any, error):
		return f(args...)
	case func():
		f()
		return nil, nil
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s (%T)", ErrNotFunction, name, fn)
	}
	t := v.Type()
	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < t.NumIn(); i++ {
		if t.IsVariadic() && i == t.NumIn()-1 {
			for j := i; j < len(args); j++ {
				arg, err := convertArg(args[j], t.In(i).Elem())
				if err != nil {
					return nil, fmt.Errorf("%s: argument %d: %w", name, j, err)
				}
				in = append(in, arg)
			}
			break
		}
		var a any
		if i < len(args) {
			a = args[i]
		}
		arg, err := convertArg(a, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
		}
		in = append(in, arg)
	}
	out := v.Call(in)
	errType := reflect.TypeOf((*error)(nil)).Elem()
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	}
	last := out[len(out)-1]
	if last.Type() == errType && !last.IsNil() {
		return nil, last.Interface().(error)
	}
	return out[0].Interface(), nil
}

func convertArg(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if _, isNumber := observation.ToFloat(value); isNumber && v.Type().ConvertibleTo(t) && t.Kind() != reflect.String {
		return v.Convert(t), nil
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(util.Stringify(value)).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, t)
}

// mutate implements the collection methods that change their receiver. They
// are never observed.
func mutate(obj any, name string, args []any) (any, bool, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch o := obj.(type) {
	case *observation.Array:
		switch name {
		case "push":
			return float64(o.Push(args...)), true, nil
		case "pop":
			return o.Pop(), true, nil
		case "shift":
			return o.Shift(), true, nil
		case "unshift":
			return float64(o.Unshift(args...)), true, nil
		case "splice":
			start, deleteCount := 0, o.Len()
			if len(args) > 0 {
				start = toInt(args[0])
			}
			if len(args) > 1 {
				deleteCount = toInt(args[1])
			}
			var items []any
			if len(args) > 2 {
				items = args[2:]
			}
			return observation.NewArray(o.Splice(start, deleteCount, items...)...), true, nil
		case "reverse":
			o.Reverse()
			return o, true, nil
		case "sort":
			var cmpErr error
			less := func(x, y any) bool { return util.Stringify(x) < util.Stringify(y) }
			if compare := arg(0); compare != nil {
				less = func(x, y any) bool {
					v, err := callFunction(compare, []any{x, y}, "sort")
					if err != nil {
						if cmpErr == nil {
							cmpErr = err
						}
						return false
					}
					return ToNumber(v) < 0
				}
			}
			o.Sort(less)
			return o, true, cmpErr
		}
	case *observation.Set:
		switch name {
		case "add":
			o.Add(arg(0))
			return o, true, nil
		case "delete":
			return o.Delete(arg(0)), true, nil
		case "clear":
			o.Clear()
			return nil, true, nil
		}
	case *observation.Map:
		switch name {
		case "set":
			o.Set(arg(0), arg(1))
			return o, true, nil
		case "delete":
			return o.Delete(arg(0)), true, nil
		case "clear":
			o.Clear()
			return nil, true, nil
		}
	}
	return nil, false, nil
}

func toInt(v any) int {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Trunc(f))
}

// callBuiltin implements the few collection and string methods templates commonly use
func callBuiltin(obj any, name string, args []any, c observation.Connectable) (any, bool) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch o := obj.(type) {
	case *observation.Array:
		if c != nil {
			c.ObserveCollection(o)
		}
		switch name {
		case "includes":
			return o.Includes(arg(0)), true
		case "indexOf":
			return float64(o.IndexOf(arg(0))), true
		case "join":
			sep := ","
			if len(args) > 0 {
				sep = util.Stringify(args[0])
			}
			parts := make([]string, o.Len())
			for i, item := range o.Items() {
				parts[i] = util.Stringify(item)
			}
			return strings.Join(parts, sep), true
		}
	case *observation.Set:
		if c != nil {
			c.ObserveCollection(o)
		}
		if name == "has" {
			return o.Has(arg(0)), true
		}
	case *observation.Map:
		if c != nil {
			c.ObserveCollection(o)
		}
		switch name {
		case "has":
			return o.Has(arg(0)), true
		case "get":
			v, _ := o.Get(arg(0))
			return v, true
		}
	case string:
		switch name {
		case "toUpperCase":
			return strings.ToUpper(o), true
		case "toLowerCase":
			return strings.ToLower(o), true
		case "trim":
			return strings.TrimSpace(o), true
		case "includes":
			return strings.Contains(o, util.Stringify(arg(0))), true
		case "startsWith":
			return strings.HasPrefix(o, util.Stringify(arg(0))), true
		case "endsWith":
			return strings.HasSuffix(o, util.Stringify(arg(0))), true
		}
	}
	if name == "toString" {
		return util.Stringify(obj), true
	}
	return nil, false
}

func (b *Binary) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	left, err := b.Left.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return b.Right.Evaluate(s, host, env, c)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return b.Right.Evaluate(s, host, env, c)
	case "??":
		if left != nil {
			return left, nil
		}
		return b.Right.Evaluate(s, host, env, c)
	}
	right, err := b.Right.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	return binaryOp(b.Op, left, right)
}

func binaryOp(op string, left, right any) (any, error) {
	switch op {
	case "==":
		return LooseEqual(left, right), nil
	case "!=":
		return !LooseEqual(left, right), nil
	case "===":
		return observation.StrictEqual(left, right), nil
	case "!==":
		return !observation.StrictEqual(left, right), nil
	case "+":
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return util.Stringify(left) + util.Stringify(right), nil
		}
		return ToNumber(left) + ToNumber(right), nil
	case "-":
		return ToNumber(left) - ToNumber(right), nil
	case "*":
		return ToNumber(left) * ToNumber(right), nil
	case "/":
		return ToNumber(left) / ToNumber(right), nil
	case "%":
		return math.Mod(ToNumber(left), ToNumber(right)), nil
	case "**":
		return math.Pow(ToNumber(left), ToNumber(right)), nil
	case "<", ">", "<=", ">=":
		return compare(op, left, right), nil
	case "in":
		return observation.Has(right, util.Stringify(left)), nil
	case "instanceof":
		return false, nil
	}
	return nil, fmt.Errorf("unknown binary operator %q", op)
}

func compare(op string, left, right any) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		}
		return ls >= rs
	}
	l, r := ToNumber(left), ToNumber(right)
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	}
	return l >= r
}

func (b *Binary) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, b)
}

func (u *Unary) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	v, err := u.Expr.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case "!":
		return !Truthy(v), nil
	case "-":
		return -ToNumber(v), nil
	case "+":
		return ToNumber(v), nil
	case "typeof":
		return TypeOf(v), nil
	case "void":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown unary operator %q", u.Op)
}

func (u *Unary) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, u)
}

func (e *Conditional) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	cond, err := e.Cond.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return e.Yes.Evaluate(s, host, env, c)
	}
	return e.No.Evaluate(s, host, env, c)
}

func (e *Conditional) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, e)
}

func (a *Assign) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	value, err := a.Value.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	if a.Op != "=" && a.Op != "" {
		current, err := a.Target.Evaluate(s, host, env, c)
		if err != nil {
			return nil, err
		}
		if value, err = binaryOp(strings.TrimSuffix(a.Op, "="), current, value); err != nil {
			return nil, err
		}
	}
	if err := a.Target.Assign(s, host, env, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (a *Assign) Assign(s, host *scope.Scope, env Env, value any) error {
	if err := a.Value.Assign(s, host, env, value); err != nil {
		return err
	}
	return a.Target.Assign(s, host, env, value)
}

func (p *PrimitiveLiteral) Evaluate(_, _ *scope.Scope, _ Env, _ observation.Connectable) (any, error) {
	return p.Value, nil
}

func (p *PrimitiveLiteral) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, p)
}

func (a *ArrayLiteral) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	return evalArgs(a.Elements, s, host, env, c)
}

func (a *ArrayLiteral) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, a)
}

func (o *ObjectLiteral) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	obj := &observation.Object{}
	for i, key := range o.Keys {
		v, err := o.Values[i].Evaluate(s, host, env, c)
		if err != nil {
			return nil, err
		}
		obj.Define(key, v)
	}
	return obj, nil
}

func (o *ObjectLiteral) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, o)
}

func (t *Template) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	var b strings.Builder
	b.WriteString(t.Cooked[0])
	for i, e := range t.Expressions {
		v, err := e.Evaluate(s, host, env, c)
		if err != nil {
			return nil, err
		}
		b.WriteString(util.Stringify(v))
		b.WriteString(t.Cooked[i+1])
	}
	return b.String(), nil
}

func (t *Template) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, t)
}

func (v *ValueConverterExpression) converter(env Env) (ValueConverter, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConverter, v.Name)
	}
	conv, err := env.ValueConverter(v.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoConverter, v.Name, err)
	}
	return conv, nil
}

func (v *ValueConverterExpression) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	value, err := v.Expr.Evaluate(s, host, env, c)
	if err != nil {
		return nil, err
	}
	conv, err := v.converter(env)
	if err != nil {
		return nil, err
	}
	args, err := evalArgs(v.Args, s, host, env, c)
	if err != nil {
		return nil, err
	}
	return conv.ToView(value, args...), nil
}

func (v *ValueConverterExpression) Assign(s, host *scope.Scope, env Env, value any) error {
	conv, err := v.converter(env)
	if err != nil {
		return err
	}
	if from, ok := conv.(FromViewConverter); ok {
		args, err := evalArgs(v.Args, s, host, env, nil)
		if err != nil {
			return err
		}
		value = from.FromView(value, args...)
	}
	return v.Expr.Assign(s, host, env, value)
}

func (b *BindingBehaviorExpression) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	return b.Expr.Evaluate(s, host, env, c)
}

func (b *BindingBehaviorExpression) Assign(s, host *scope.Scope, env Env, value any) error {
	return b.Expr.Assign(s, host, env, value)
}

// EvaluateArgs evaluates the behavior arguments
func (b *BindingBehaviorExpression) EvaluateArgs(s, host *scope.Scope, env Env) ([]any, error) {
	return evalArgs(b.Args, s, host, env, nil)
}

func (b *BindingIdentifier) Evaluate(_, _ *scope.Scope, _ Env, _ observation.Connectable) (any, error) {
	return b.Name, nil
}

func (b *BindingIdentifier) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, b)
}

func (p *ArrayBindingPattern) Evaluate(_, _ *scope.Scope, _ Env, _ observation.Connectable) (any, error) {
	return nil, nil
}

func (p *ArrayBindingPattern) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, p)
}

func (f *ForOf) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	return f.Iterable.Evaluate(s, host, env, c)
}

func (f *ForOf) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, f)
}

func (i *Interpolation) Evaluate(s, host *scope.Scope, env Env, c observation.Connectable) (any, error) {
	var b strings.Builder
	b.WriteString(i.Parts[0])
	for n, e := range i.Expressions {
		v, err := e.Evaluate(s, host, env, c)
		if err != nil {
			return nil, err
		}
		b.WriteString(util.Stringify(v))
		b.WriteString(i.Parts[n+1])
	}
	return b.String(), nil
}

func (i *Interpolation) Assign(_, _ *scope.Scope, _ Env, _ any) error {
	return fmt.Errorf("%w: %s", ErrNotAssignable, i)
}

// Truthy applies the template language's truthiness rules
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := observation.ToFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// ToNumber converts v to a float64. Unparseable strings and non-scalars are NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if f, ok := observation.ToFloat(v); ok {
		return f
	}
	return math.NaN()
}

// LooseEqual is == over the Go value model
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, an := observation.ToFloat(a)
	_, bn := observation.ToFloat(b)
	_, as := a.(string)
	_, bs := b.(string)
	_, ab := a.(bool)
	_, bb := b.(bool)
	if (an || as || ab) && (bn || bs || bb) && !(as && bs) {
		return ToNumber(a) == ToNumber(b)
	}
	return observation.StrictEqual(a, b)
}

// TypeOf returns the typeof name of v
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := observation.ToFloat(v); ok {
		return "number"
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "function"
	}
	return "object"
}

func elementAt(item any, i int) any {
	switch t := item.(type) {
	case nil:
		return nil
	case [2]any:
		if i < 2 {
			return t[i]
		}
		return nil
	case *observation.Array:
		return t.At(i)
	}
	v := reflect.ValueOf(item)
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && i < v.Len() {
		return v.Index(i).Interface()
	}
	return nil
}
