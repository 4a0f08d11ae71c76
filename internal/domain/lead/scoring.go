package lead

import (
	"fmt"
	"slices"
)

// ScoringRule はリードに加点・減点する条件付きルール
type ScoringRule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Condition Condition `json:"condition"`
	Points    int       `json:"points"`
	Active    bool      `json:"active"`
}

// Matches はルールが有効かつ条件に一致するかを判定
func (r ScoringRule) Matches(l Lead) bool {
	return r.Active && Evaluate(l, r.Condition)
}

// Score はルール集合をリードに畳み込んでスコアを返す。
// 単純な総和のため順序に依存せず、上下限のクランプもしない
func Score(l Lead, rules []ScoringRule) int {
	total := 0
	for _, r := range rules {
		if r.Matches(l) {
			total += r.Points
		}
	}
	return total
}

// ScoreAll は全リードを再評価した新しいスライスを返す（入力は変更しない）
func ScoreAll(leads []Lead, rules []ScoringRule) []Lead {
	scored := make([]Lead, len(leads))
	for i, l := range leads {
		scored[i] = l.WithScore(Score(l, rules))
	}
	return scored
}

// UpsertRule は同じIDのルールを置き換え、無ければ末尾に追加した新しいスライスを返す
func UpsertRule(rules []ScoringRule, r ScoringRule) []ScoringRule {
	out := slices.Clone(rules)
	for i := range out {
		if out[i].ID == r.ID {
			out[i] = r
			return out
		}
	}
	return append(out, r)
}

// RemoveRule はIDが一致するルールを除いた新しいスライスを返す
func RemoveRule(rules []ScoringRule, id string) ([]ScoringRule, error) {
	i := slices.IndexFunc(rules, func(r ScoringRule) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return slices.Delete(slices.Clone(rules), i, i+1), nil
}
