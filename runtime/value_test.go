package runtime

import "testing"

func TestValueEqualSameKind(t *testing.T) {
	if !Int(5).Equal(Int(5)) {
		t.Fatal("Int(5) should equal Int(5)")
	}
	if Int(5).Equal(Int(6)) {
		t.Fatal("Int(5) should not equal Int(6)")
	}
	if !Bool(true).Equal(Bool(true)) {
		t.Fatal("Bool(true) should equal Bool(true)")
	}
}

func TestValueEqualDifferentKindNeverCoerces(t *testing.T) {
	if Int(1).Equal(Bool(true)) {
		t.Fatal("Int(1) must never equal Bool(true)")
	}
	if Bool(false).Equal(Int(0)) {
		t.Fatal("Bool(false) must never equal Int(0)")
	}
}

func TestValueString(t *testing.T) {
	if got := Int(42).String(); got != "42" {
		t.Errorf("Int(42).String() = %q, want 42", got)
	}
	if got := Bool(true).String(); got != "true" {
		t.Errorf("Bool(true).String() = %q, want true", got)
	}
	if got := Bool(false).String(); got != "false" {
		t.Errorf("Bool(false).String() = %q, want false", got)
	}
}

func TestValueKindPredicates(t *testing.T) {
	if !Int(1).IsInt() || Int(1).IsBool() {
		t.Fatal("Int(1) should report IsInt and not IsBool")
	}
	if !Bool(true).IsBool() || Bool(true).IsInt() {
		t.Fatal("Bool(true) should report IsBool and not IsInt")
	}
}
