package routing

import (
	"strings"

	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

// 既定のモデルID
const (
	DefaultProModel       = "gemini-3-pro-preview"
	DefaultStandardModel  = "gemini-2.5-flash"
	DefaultLiteModel      = "gemini-2.5-flash-lite"
	DefaultThinkingBudget = 32768
)

// Models はルートごとに使うモデルの設定
type Models struct {
	Pro            string
	Standard       string
	Lite           string
	ThinkingBudget int
}

func (m Models) withDefaults() Models {
	if m.Pro == "" {
		m.Pro = DefaultProModel
	}
	if m.Standard == "" {
		m.Standard = DefaultStandardModel
	}
	if m.Lite == "" {
		m.Lite = DefaultLiteModel
	}
	if m.ThinkingBudget <= 0 {
		m.ThinkingBudget = DefaultThinkingBudget
	}
	return m
}

// rule は (述語, 決定) の組。決定は呼び出しごとに複製して返す
type rule struct {
	route    routing.Route
	keywords []string
	decide   func(reason string) routing.Decision
}

func (r rule) match(lowered string) (string, bool) {
	for _, keyword := range r.keywords {
		if strings.Contains(lowered, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// IntentRouter はキーワードの順序付き判定表でモデル構成を選ぶ
type IntentRouter struct {
	rules    []rule
	fallback func() routing.Decision
}

// NewIntentRouter は新しいIntentRouterを作成
func NewIntentRouter(models Models) *IntentRouter {
	m := models.withDefaults()

	return &IntentRouter{
		rules: []rule{
			// 分析系: 最上位モデル + 大きな思考予算
			{
				route:    routing.RouteANALYZE,
				keywords: []string{"complex analysis", "optimize", "forecast"},
				decide: func(reason string) routing.Decision {
					d := routing.NewDecision(routing.RouteANALYZE, m.Pro, reason)
					budget := m.ThinkingBudget
					d.GenerationConfig = &routing.GenerationConfig{ThinkingBudget: &budget}
					return d
				},
			},
			// 位置系: 地図機能
			{
				route:    routing.RouteGEO,
				keywords: []string{"find near", "locate", "map of"},
				decide: func(reason string) routing.Decision {
					d := routing.NewDecision(routing.RouteGEO, m.Standard, reason)
					d.Tools = []routing.Capability{routing.CapabilityGoogleMaps}
					return d
				},
			},
			// 鮮度系: Web検索
			{
				route:    routing.RouteFRESH,
				keywords: []string{"latest news", "regulations", "what is the latest"},
				decide: func(reason string) routing.Decision {
					d := routing.NewDecision(routing.RouteFRESH, m.Standard, reason)
					d.Tools = []routing.Capability{routing.CapabilityGoogleSearch}
					return d
				},
			},
			// 速度系: 軽量モデル
			{
				route:    routing.RouteFAST,
				keywords: []string{"fast", "quick summary"},
				decide: func(reason string) routing.Decision {
					return routing.NewDecision(routing.RouteFAST, m.Lite, reason)
				},
			},
		},
		fallback: func() routing.Decision {
			return routing.NewDecision(routing.RouteDEFAULT, m.Standard, "default")
		},
	}
}

// Route はプロンプトからルーティング決定を返す（必ず何らかの決定を返す）
func (r *IntentRouter) Route(prompt string) routing.Decision {
	return r.RouteNear(prompt, nil)
}

// RouteNear は座標があれば地図機能に位置バイアスを付与する
func (r *IntentRouter) RouteNear(prompt string, loc *routing.LatLng) routing.Decision {
	lowered := strings.ToLower(prompt)

	// ルールを順番にチェック（最初に一致したものが優先）
	for _, rl := range r.rules {
		if keyword, ok := rl.match(lowered); ok {
			return rl.decide("keyword: " + keyword).WithLocation(loc)
		}
	}

	return r.fallback()
}
