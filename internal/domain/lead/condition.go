package lead

import (
	"strconv"
	"strings"
)

// Operator は条件の比較演算子
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
)

// String はOperatorの文字列表現を返す
func (o Operator) String() string {
	return string(o)
}

// IsKnown は評価可能な演算子かを判定
func (o Operator) IsKnown() bool {
	switch o {
	case OpEquals, OpContains, OpGreaterThan:
		return true
	}
	return false
}

// Condition は (field, operator, value) の三つ組
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Evaluate は条件をリードに対して評価する。
// 属性が無い・演算子が未知・数値変換失敗はすべて不一致扱い
func Evaluate(l Lead, c Condition) bool {
	actual, ok := l.Field(c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return actual == c.Value
	case OpContains:
		return strings.Contains(actual, c.Value)
	case OpGreaterThan:
		left, ok := parseNumber(actual)
		if !ok {
			return false
		}
		right, ok := parseNumber(c.Value)
		if !ok {
			return false
		}
		return left > right
	default:
		return false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
