package expression_test

import (
	"errors"
	"testing"

	"au-go/packages/runtime/src/expression"

	"github.com/google/go-cmp/cmp"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"name", "name"},
		{"a.b.c", "a.b.c"},
		{"a?.b", "a?.b"},
		{"items[0]", "items[0]"},
		{"$this", "$this"},
		{"$parent.name", "$parent.name"},
		{"$parent.$parent.name", "$parent.$parent.name"},
		{"$parent", "$parent"},
		{"$host.title", "$host.title"},
		{"greet('x', 1)", "greet(\"x\",1)"},
		{"obj.method(a)", "obj.method(a)"},
		{"a + b * c", "(a+(b*c))"},
		{"(a + b) * c", "((a+b)*c)"},
		{"a ?? b || c", "(a??(b||c))"},
		{"!done", "(!done)"},
		{"typeof x", "(typeof x)"},
		{"a ? b : c", "(a?b:c)"},
		{"x = y", "x=y"},
		{"count += 1", "count+=1"},
		{"2 ** 3 ** 2", "(2**(3**2))"},
		{"'k' in obj", "(\"k\" in obj)"},
		{"[1, a]", "[1,a]"},
		{"{a: 1, b}", "{a:1,b:b}"},
		{"`hi ${name}!`", "`hi ${name}!`"},
		{"value | upper", "value|upper"},
		{"value | fmt:'x':2 & debounce:100", "value|fmt:\"x\":2&debounce:100"},
		{"null", "null"},
		{"true", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ast, err := expression.Parse(tt.src, expression.TypeProperty)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			if got := ast.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseScopeAccess(t *testing.T) {
	ast, err := expression.Parse("$parent.$parent.name", expression.TypeProperty)
	if err != nil {
		t.Fatal(err)
	}
	want := &expression.AccessScope{Name: "name", Ancestor: 2}
	if diff := cmp.Diff(want, ast); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}

	ast, err = expression.Parse("$host.save()", expression.TypeFunction)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&expression.CallScope{Name: "save", Host: true}, ast); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseForOf(t *testing.T) {
	tests := []struct {
		src  string
		want *expression.ForOf
	}{
		{
			"item of items",
			&expression.ForOf{
				Declaration: &expression.BindingIdentifier{Name: "item"},
				Iterable:    &expression.AccessScope{Name: "items"},
			},
		},
		{
			"[k, v] of map",
			&expression.ForOf{
				Declaration: &expression.ArrayBindingPattern{Elements: []string{"k", "v"}},
				Iterable:    &expression.AccessScope{Name: "map"},
			},
		},
		{
			"item of items; key: id",
			&expression.ForOf{
				Declaration: &expression.BindingIdentifier{Name: "item"},
				Iterable:    &expression.AccessScope{Name: "items"},
				KeyProperty: "id",
			},
		},
		{
			"item of items; key.bind: item.id",
			&expression.ForOf{
				Declaration: &expression.BindingIdentifier{Name: "item"},
				Iterable:    &expression.AccessScope{Name: "items"},
				KeyExpr:     &expression.AccessMember{Object: &expression.AccessScope{Name: "item"}, Name: "id"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ast, err := expression.Parse(tt.src, expression.TypeIterator)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if diff := cmp.Diff(tt.want, ast); diff != "" {
				t.Errorf("ForOf mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"a +", "(a", "1 = 2", "a b", "item in items", "'open"} {
		t.Run(src, func(t *testing.T) {
			typ := expression.TypeProperty
			if src == "item in items" {
				typ = expression.TypeIterator
			}
			if _, err := expression.Parse(src, typ); !errors.Is(err, expression.ErrParse) {
				t.Errorf("Parse(%q) error = %v, want ErrParse", src, err)
			}
		})
	}
}

func TestParseInterpolation(t *testing.T) {
	t.Run("no expressions", func(t *testing.T) {
		got, err := expression.ParseInterpolation("plain text")
		if err != nil || got != nil {
			t.Errorf("Expected nil interpolation, got %v, %v", got, err)
		}
	})

	t.Run("parts and expressions", func(t *testing.T) {
		got, err := expression.ParseInterpolation("Hello ${first} ${last}!")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"Hello ", " ", "!"}, got.Parts); diff != "" {
			t.Errorf("Parts mismatch (-want +got):\n%s", diff)
		}
		if len(got.Expressions) != 2 {
			t.Fatalf("Expected 2 expressions, got %d", len(got.Expressions))
		}
		if got.IsSimple() {
			t.Errorf("Expected a compound interpolation")
		}
	})

	t.Run("nested braces", func(t *testing.T) {
		got, err := expression.ParseInterpolation("${ {a: 1}.a }")
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsSimple() {
			t.Errorf("Expected a simple interpolation")
		}
	})

	t.Run("unterminated", func(t *testing.T) {
		if _, err := expression.ParseInterpolation("${oops"); !errors.Is(err, expression.ErrParse) {
			t.Errorf("Expected ErrParse, got %v", err)
		}
	})
}

func TestParserCache(t *testing.T) {
	p := expression.NewParser()
	a, err := p.Parse("a.b", expression.TypeProperty)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := p.Parse("a.b", expression.TypeProperty)
	if a != b {
		t.Errorf("Expected the cached AST to be returned")
	}
	none, err := p.Parse("static", expression.TypeInterpolation)
	if err != nil || none != nil {
		t.Errorf("Expected nil AST for text without interpolation, got %v", none)
	}
}
