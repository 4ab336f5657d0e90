// Package config implements the option schema and the staged overlay of
// configuration values: compiled defaults, module-declared defaults,
// the persisted config file, and command-line overrides — applied in
// that fixed order, later passes winning.
package config

import "fmt"

// Type is the declared type of an option.
type Type int

const (
	TypeBool Type = iota
	TypeInt
	TypeFloat
	TypeString
	// TypePath is a string whose value supports "~/" substitution
	// with the resolved user directory, applied lazily on first read.
	TypePath
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypePath:
		return "path"
	default:
		return "unknown"
	}
}

// ParseType maps a descriptor type name to a Type.  Used when loading
// plugin descriptor files.
func ParseType(name string) (Type, error) {
	switch name {
	case "bool":
		return TypeBool, nil
	case "int", "integer":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	case "path":
		return TypePath, nil
	default:
		return TypeString, fmt.Errorf("unknown option type %q", name)
	}
}

// Item declares a single option: its name, type, compiled default and
// the one-line description shown in usage output.
type Item struct {
	Name  string
	Type  Type
	Short string // optional single-letter flag shorthand
	Text  string

	DefBool   bool
	DefInt    int64
	DefFloat  float64
	DefString string
}

// Default returns the item's compiled default as a Value.
func (it Item) Default() Value {
	switch it.Type {
	case TypeBool:
		return BoolValue(it.DefBool)
	case TypeInt:
		return IntValue(it.DefInt)
	case TypeFloat:
		return FloatValue(it.DefFloat)
	default:
		return StringValue(it.DefString)
	}
}

// Value is one typed configuration value in the overlay.
type Value struct {
	typ Type
	b   bool
	i   int64
	f   float64
	s   string
}

func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }
func IntValue(i int64) Value { return Value{typ: TypeInt, i: i} }
func FloatValue(f float64) Value { return Value{typ: TypeFloat, f: f} }
func StringValue(s string) Value { return Value{typ: TypeString, s: s} }

// Bool returns the boolean payload (false for non-bool values).
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload (0 for non-int values).
func (v Value) Int() int64 { return v.i }

// Float returns the float payload (0 for non-float values).
func (v Value) Float() float64 { return v.f }

// String returns the string payload ("" for non-string values).
func (v Value) String() string { return v.s }

// Interface returns the payload as an untyped value, for persistence.
func (v Value) Interface() interface{} {
	switch v.typ {
	case TypeBool:
		return v.b
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	default:
		return v.s
	}
}
