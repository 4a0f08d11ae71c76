package extract

import (
	"github.com/tidwall/gjson"

	"github.com/Nyukimin/leadqual/internal/domain/llm"
)

// GroundingReferences は候補の groundingMetadata.groundingChunks から
// Web / Maps の参照先を出現順・URI重複なしで集める
func GroundingReferences(result []byte) []llm.GroundingReference {
	if len(result) == 0 || !gjson.ValidBytes(result) {
		return nil
	}

	doc := gjson.ParseBytes(result)
	candidates := doc.Get("candidates")
	if !candidates.IsArray() {
		candidates = doc.Get("response.candidates")
	}

	var refs []llm.GroundingReference
	seen := make(map[string]bool)
	candidates.ForEach(func(_, candidate gjson.Result) bool {
		candidate.Get("groundingMetadata.groundingChunks").ForEach(func(_, chunk gjson.Result) bool {
			for _, kind := range []string{"web", "maps"} {
				uri := chunk.Get(kind + ".uri").String()
				if uri == "" || seen[uri] {
					continue
				}
				seen[uri] = true
				refs = append(refs, llm.GroundingReference{
					Title: chunk.Get(kind + ".title").String(),
					URI:   uri,
				})
			}
			return true
		})
		return true
	})

	return refs
}
