// Package extract はモデル出力の自由テキストから構造化データを取り出す
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// (?s): 改行をまたいで最短一致、タグは大小文字を区別しない。
// \b により jsonc や json5 のタグは対象外
var fencedJSON = regexp.MustCompile("(?is)```json\\b\\s*(.*?)```")

// LocateJSON はテキスト中のJSONオブジェクト候補を切り出す。
// ```json フェンスがあればその内部、無ければ全文を候補とし、
// 最初の '{' から最後の '}' までを返す
func LocateJSON(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	candidate := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end < 0 || end < start {
		return "", false
	}

	return candidate[start : end+1], true
}

// ParseObject は候補文字列をJSONオブジェクトとして解析する
func ParseObject(candidate string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse JSON object: %w", err)
	}
	return obj, nil
}

// ExtractJSON は LocateJSON と ParseObject を合成する。失敗時は nil を返し、例外は外に出さない
func ExtractJSON(raw string) map[string]any {
	candidate, ok := LocateJSON(raw)
	if !ok {
		if raw != "" {
			zap.L().Warn("extract: no JSON object delimiters found", zap.Int("raw_len", len(raw)))
		}
		return nil
	}

	obj, err := ParseObject(candidate)
	if err != nil {
		zap.L().Warn("extract: failed to parse model JSON",
			zap.Int("candidate_len", len(candidate)),
			zap.Error(err),
		)
		return nil
	}
	return obj
}
