package leadbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Nyukimin/leadqual/internal/domain/lead"
)

// JSONRepository はJSONファイル1つにリードとルールを保存する lead.Repository 実装
type JSONRepository struct {
	path string
	mu   sync.Mutex
}

// NewJSONRepository は新しいJSONRepositoryを作成
func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

var _ lead.Repository = (*JSONRepository)(nil)

// bookDTO はJSONシリアライズ用のDTO
type bookDTO struct {
	Leads []lead.Lead        `json:"leads"`
	Rules []lead.ScoringRule `json:"rules"`
}

// ListLeads は保存順にリードを返す
func (r *JSONRepository) ListLeads(ctx context.Context) ([]lead.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return nil, err
	}
	return book.Leads, nil
}

// GetLead はIDでリードを取得
func (r *JSONRepository) GetLead(ctx context.Context, id string) (lead.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return lead.Lead{}, err
	}
	for _, l := range book.Leads {
		if l.ID == id {
			return l, nil
		}
	}
	return lead.Lead{}, fmt.Errorf("%w: %s", lead.ErrLeadNotFound, id)
}

// SaveLead はリードを追加または更新
func (r *JSONRepository) SaveLead(ctx context.Context, l lead.Lead) error {
	return r.update(func(book *bookDTO) error {
		for i := range book.Leads {
			if book.Leads[i].ID == l.ID {
				book.Leads[i] = l
				return nil
			}
		}
		book.Leads = append(book.Leads, l)
		return nil
	})
}

// DeleteLead はリードを削除
func (r *JSONRepository) DeleteLead(ctx context.Context, id string) error {
	return r.update(func(book *bookDTO) error {
		for i := range book.Leads {
			if book.Leads[i].ID == id {
				book.Leads = append(book.Leads[:i], book.Leads[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", lead.ErrLeadNotFound, id)
	})
}

// ListRules は保存順にスコアリングルールを返す
func (r *JSONRepository) ListRules(ctx context.Context) ([]lead.ScoringRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return nil, err
	}
	return book.Rules, nil
}

// ReplaceBook はリードとルールを1回の書き込みで置き換える（ルール変更時の再スコアリング用）
func (r *JSONRepository) ReplaceBook(ctx context.Context, leads []lead.Lead, rules []lead.ScoringRule) error {
	return r.update(func(book *bookDTO) error {
		book.Leads = append([]lead.Lead{}, leads...)
		book.Rules = append([]lead.ScoringRule{}, rules...)
		return nil
	})
}

// update はロック下で読み込み・変更・書き込みを行う。fn がエラーなら書き込まない
func (r *JSONRepository) update(fn func(*bookDTO) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(book); err != nil {
		return err
	}
	return r.store(book)
}

// load はファイルを読み込む。存在しなければ空のブック
func (r *JSONRepository) load() (*bookDTO, error) {
	book := &bookDTO{Leads: []lead.Lead{}, Rules: []lead.ScoringRule{}}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return book, nil
		}
		return nil, fmt.Errorf("failed to read lead book: %w", err)
	}

	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead book: %w", err)
	}
	if book.Leads == nil {
		book.Leads = []lead.Lead{}
	}
	if book.Rules == nil {
		book.Rules = []lead.ScoringRule{}
	}
	return book, nil
}

// store は一時ファイル経由で書き込み、途中で壊れたファイルを残さない
func (r *JSONRepository) store(book *bookDTO) error {
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lead book: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create lead book directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write lead book file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace lead book file: %w", err)
	}
	return nil
}
