package prospect

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalize は抽出済みペイロードの leads 配列を LeadProspect に正規化する
func Normalize(payload any) []LeadProspect {
	return NormalizeAt(payload, time.Now())
}

// NormalizeAt は採番に使う時刻を固定して正規化する
func NormalizeAt(payload any, now time.Time) []LeadProspect {
	obj, ok := payload.(map[string]any)
	if !ok {
		return []LeadProspect{}
	}
	rawLeads, ok := obj["leads"].([]any)
	if !ok {
		return []LeadProspect{}
	}

	prospects := make([]LeadProspect, 0, len(rawLeads))
	for i, raw := range rawLeads {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		p, ok := normalizeEntry(entry, i, now)
		if !ok {
			continue
		}
		prospects = append(prospects, p)
	}

	return prospects
}

// normalizeEntry は1件を正規化する。会社名が空なら false
func normalizeEntry(entry map[string]any, index int, now time.Time) (LeadProspect, bool) {
	companyName := stringField(entry, "companyName")
	if companyName == "" {
		return LeadProspect{}, false
	}

	id := stringField(entry, "id")
	if id == "" {
		id = fmt.Sprintf("%s-%d-%d", companyName, index, now.UnixMilli())
	}

	p := LeadProspect{
		ID:           id,
		CompanyName:  companyName,
		Summary:      stringField(entry, "summary"),
		Location:     stringField(entry, "location"),
		Industry:     stringField(entry, "industry"),
		CompanySize:  stringField(entry, "companySize"),
		Website:      stringField(entry, "website"),
		IntentSignal: stringField(entry, "intentSignal"),
		SourceURL:    stringField(entry, "sourceUrl"),
		Confidence:   numberField(entry, "confidence"),
	}

	if rawContact, ok := entry["contact"].(map[string]any); ok {
		c := Contact{
			Name:     stringField(rawContact, "name"),
			Title:    stringField(rawContact, "title"),
			Email:    stringField(rawContact, "email"),
			Phone:    stringField(rawContact, "phone"),
			LinkedIn: stringField(rawContact, "linkedin"),
		}
		if !c.IsEmpty() {
			p.Contact = &c
		}
	}

	return p, true
}

// stringField はトリム済み文字列を返す。数値・真偽値は文字列化し、それ以外は空
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// numberField は数値型のときだけ値を返す（文字列などは変換しない）
func numberField(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}
