package util_test

import (
	"math"
	"testing"

	"au-go/packages/runtime/src/util"
)

func TestSplitAtColon(t *testing.T) {
	t.Run("should split when a single \":\" is present", func(t *testing.T) {
		result := util.SplitAtColon("a:b", []string{})
		if len(result) != 2 || result[0] != "a" || result[1] != "b" {
			t.Errorf("Expected [a b], got %v", result)
		}
	})

	t.Run("should trim parts", func(t *testing.T) {
		result := util.SplitAtColon(" a : b ", []string{})
		if len(result) != 2 || result[0] != "a" || result[1] != "b" {
			t.Errorf("Expected [a b], got %v", result)
		}
	})

	t.Run("should use the default value when no \":\" is present", func(t *testing.T) {
		result := util.SplitAtColon("ab", []string{"c", "d"})
		if len(result) != 2 || result[0] != "c" || result[1] != "d" {
			t.Errorf("Expected [c d], got %v", result)
		}
	})
}

func TestCaseConversion(t *testing.T) {
	cases := []struct{ dash, camel string }{
		{"value", "value"},
		{"then-value", "thenValue"},
		{"default-binding-mode", "defaultBindingMode"},
	}
	for _, c := range cases {
		if got := util.DashCaseToCamelCase(c.dash); got != c.camel {
			t.Errorf("DashCaseToCamelCase(%q) = %q, want %q", c.dash, got, c.camel)
		}
		if got := util.CamelCaseToDashCase(c.camel); got != c.dash {
			t.Errorf("CamelCaseToDashCase(%q) = %q, want %q", c.camel, got, c.dash)
		}
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{42.0, "42"},
		{1.5, "1.5"},
		{7, "7"},
		{true, "true"},
		{math.NaN(), "NaN"},
	}
	for _, c := range cases {
		if got := util.Stringify(c.in); got != c.want {
			t.Errorf("Stringify(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
