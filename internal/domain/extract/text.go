package extract

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ExtractText は補完結果から本文テキストを取り出す。対応する形は次の3つ:
//
//	{"response": {"candidates": [...]}}
//	{"candidates": [...]}
//	{"text": "..."}
//
// 全候補の content.parts[].text を改行で連結してトリムする。該当しなければ空文字
func ExtractText(result []byte) string {
	if len(result) == 0 || !gjson.ValidBytes(result) {
		return ""
	}

	doc := gjson.ParseBytes(result)

	if candidates := doc.Get("response.candidates"); candidates.IsArray() {
		if text := joinCandidateText(candidates); text != "" {
			return text
		}
	}

	if candidates := doc.Get("candidates"); candidates.IsArray() {
		if text := joinCandidateText(candidates); text != "" {
			return text
		}
	}

	if text := doc.Get("text"); text.Type == gjson.String {
		return strings.TrimSpace(text.String())
	}

	return ""
}

// ExtractTextFrom は任意の値をJSON化してから ExtractText を適用する
func ExtractTextFrom(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(r)
	case []byte:
		return ExtractText(r)
	case json.RawMessage:
		return ExtractText(r)
	}

	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Debug("extract: completion result is not JSON encodable", zap.Error(err))
		return ""
	}
	return ExtractText(data)
}

func joinCandidateText(candidates gjson.Result) string {
	var parts []string
	candidates.ForEach(func(_, candidate gjson.Result) bool {
		candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
			if text := part.Get("text"); text.Type == gjson.String {
				parts = append(parts, text.String())
			}
			return true
		})
		return true
	})
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
