package routing

// Route はルーティング先の意図カテゴリを表す型
type Route string

// ルーティングカテゴリの定数定義
const (
	RouteANALYZE Route = "ANALYZE" // 高度な分析・最適化・予測
	RouteGEO     Route = "GEO"     // 地図・位置検索
	RouteFRESH   Route = "FRESH"   // 最新情報・規制（Web検索）
	RouteFAST    Route = "FAST"    // 低レイテンシ要約
	RouteDEFAULT Route = "DEFAULT" // 既定
)

// String はRouteの文字列表現を返す
func (r Route) String() string {
	return string(r)
}

// Capability はリクエスト単位で付与できる検索・ツール機能
type Capability string

const (
	CapabilityGoogleSearch Capability = "googleSearch"
	CapabilityGoogleMaps   Capability = "googleMaps"
)

// GenerationConfig は生成パラメータ（未設定はnil）
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	ThinkingBudget  *int     `json:"thinkingBudget,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// LatLng は位置バイアス用の座標
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RetrievalConfig は検索結果取得時のバイアス設定
type RetrievalConfig struct {
	LatLng LatLng `json:"latLng"`
}

// Decision はルーティング決定の結果を表す
type Decision struct {
	Route            Route             `json:"route"`
	Model            string            `json:"model"`
	Tools            []Capability      `json:"tools,omitempty"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	Retrieval        *RetrievalConfig  `json:"retrieval,omitempty"`
	Reason           string            `json:"reason"`
}

// NewDecision は新しいDecisionを作成
func NewDecision(route Route, model string, reason string) Decision {
	return Decision{
		Route:  route,
		Model:  model,
		Reason: reason,
	}
}

// HasTool は指定した機能が含まれるかを判定
func (d Decision) HasTool(c Capability) bool {
	for _, t := range d.Tools {
		if t == c {
			return true
		}
	}
	return false
}

// WithLocation は地図機能が選択されていて座標がある場合のみ位置バイアスを付与した
// 新しいDecisionを返す
func (d Decision) WithLocation(loc *LatLng) Decision {
	if loc == nil || !d.HasTool(CapabilityGoogleMaps) {
		return d
	}
	d.Retrieval = &RetrievalConfig{LatLng: *loc}
	return d
}
