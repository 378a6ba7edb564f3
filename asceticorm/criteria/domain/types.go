package criteria

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type Type = metamodel.ScalarType

// Widening order of numeric types, narrowest first.
var numericRank = map[Type]int{
	metamodel.TypeInt8:    1,
	metamodel.TypeInt16:   2,
	metamodel.TypeInt32:   3,
	metamodel.TypeInt64:   4,
	metamodel.TypeBigInt:  5,
	metamodel.TypeDecimal: 6,
	metamodel.TypeFloat32: 7,
	metamodel.TypeFloat64: 8,
}

// TypeOf maps a Go value to the scalar type used for type checks.
func TypeOf(value any) Type {
	switch value.(type) {
	case bool:
		return metamodel.TypeBool
	case string:
		return metamodel.TypeString
	case int8:
		return metamodel.TypeInt8
	case int16, uint8:
		return metamodel.TypeInt16
	case int32, uint16:
		return metamodel.TypeInt32
	case int, int64, uint32:
		return metamodel.TypeInt64
	case uint, uint64, *big.Int, big.Int:
		return metamodel.TypeBigInt
	case decimal.Decimal, *decimal.Decimal:
		return metamodel.TypeDecimal
	case float32:
		return metamodel.TypeFloat32
	case float64:
		return metamodel.TypeFloat64
	case time.Time, *time.Time:
		return metamodel.TypeTime
	case []byte:
		return metamodel.TypeBytes
	}
	return metamodel.TypeUnknown
}

// Widen returns the common numeric type of two operands.
func Widen(left, right Type) (Type, error) {
	l, lok := numericRank[left]
	r, rok := numericRank[right]
	if !lok {
		return metamodel.TypeUnknown, errors.Wrapf(ErrIncompatibleType, "%q is not numeric", left)
	}
	if !rok {
		return metamodel.TypeUnknown, errors.Wrapf(ErrIncompatibleType, "%q is not numeric", right)
	}
	if l >= r {
		return left, nil
	}
	return right, nil
}

// comparable reports whether values of both types may meet in a predicate.
// An unknown type (null constant, untyped parameter) is compatible with anything.
func comparableTypes(left, right Type) bool {
	if left == metamodel.TypeUnknown || right == metamodel.TypeUnknown {
		return true
	}
	if left == right {
		return true
	}
	return left.IsNumeric() && right.IsNumeric()
}

func checkComparable(left, right Expression) error {
	if !comparableTypes(left.Type(), right.Type()) {
		return errors.Wrapf(ErrIncompatibleType, "%s and %s", left.Type(), right.Type())
	}
	return nil
}

// commonType widens numeric branch types and requires equal types otherwise.
// Unknown types do not take part.
func commonType(exprs ...Expression) (Type, error) {
	result := metamodel.TypeUnknown
	for _, e := range exprs {
		t := e.Type()
		if t == metamodel.TypeUnknown {
			continue
		}
		if result == metamodel.TypeUnknown {
			result = t
			continue
		}
		if result == t {
			continue
		}
		widened, err := Widen(result, t)
		if err != nil {
			return metamodel.TypeUnknown, err
		}
		result = widened
	}
	return result, nil
}
