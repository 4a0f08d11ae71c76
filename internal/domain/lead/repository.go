package lead

import "context"

// Repository はリードとスコアリングルールの永続化の抽象化
type Repository interface {
	ListLeads(ctx context.Context) ([]Lead, error)
	GetLead(ctx context.Context, id string) (Lead, error)
	SaveLead(ctx context.Context, l Lead) error
	DeleteLead(ctx context.Context, id string) error

	ListRules(ctx context.Context) ([]ScoringRule, error)
	// ReplaceBook はリードとルールを1回の書き込みで丸ごと置き換える。失敗時はどちらも変更しない
	ReplaceBook(ctx context.Context, leads []Lead, rules []ScoringRule) error
}
