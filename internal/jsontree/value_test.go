package jsontree

import "testing"

func TestTypedAccessorsMismatch(t *testing.T) {
	v := Int(5)
	if _, err := v.AsString(); err == nil {
		t.Fatalf("AsString on an int value should fail")
	}
	var typeErr *TypeError
	if _, err := v.AsBool(); err == nil {
		t.Fatalf("AsBool on an int value should fail")
	} else if !asTypeError(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func asTypeError(err error, target **TypeError) bool {
	te, ok := err.(*TypeError)
	if !ok {
		return false
	}
	*target = te
	return true
}

func TestAsDoubleWidensInt(t *testing.T) {
	v := Int(7)
	got, err := v.AsDouble()
	if err != nil {
		t.Fatalf("AsDouble on an int value: %v", err)
	}
	if got != 7.0 {
		t.Fatalf("AsDouble(Int(7)) = %v, want 7.0", got)
	}
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	b := NewBuilder()
	b.StartDict().
		Key("zebra").Value(Int(1)).
		Key("apple").Value(Int(2)).
		EndDict()
	v, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	keys := v.Keys()
	if len(keys) != 2 || keys[0] != "zebra" || keys[1] != "apple" {
		t.Fatalf("Keys() = %v, want [zebra apple]", keys)
	}
}

func TestFieldLookup(t *testing.T) {
	b := NewBuilder()
	b.StartDict().Key("name").Value(String("Biryulyovo Zapadnoye")).EndDict()
	v, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	field, ok := v.Field("name")
	if !ok {
		t.Fatalf("Field(name) not found")
	}
	s, err := field.AsString()
	if err != nil || s != "Biryulyovo Zapadnoye" {
		t.Fatalf("Field(name) = %q, %v", s, err)
	}
	if _, ok := v.Field("missing"); ok {
		t.Fatalf("Field(missing) should not be found")
	}
}
