package prospect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCriteria は検索条件が不正な場合のエラー（リモート呼び出し前に返る）
var ErrInvalidCriteria = errors.New("invalid prospecting criteria")

// Criteria は1回の見込み客探索の入力（不変）
type Criteria struct {
	Query         string `json:"query"`
	Geography     string `json:"geography,omitempty"`
	IndustryFocus string `json:"industryFocus,omitempty"`
	IntentFocus   string `json:"intentFocus,omitempty"`
	MinHeadcount  *int   `json:"minHeadcount,omitempty"`
}

// Validate は必須項目を検証
func (c Criteria) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("%w: query must not be blank", ErrInvalidCriteria)
	}
	if c.MinHeadcount != nil && *c.MinHeadcount < 0 {
		return fmt.Errorf("%w: minHeadcount must not be negative", ErrInvalidCriteria)
	}
	return nil
}

// Contact は見込み客の担当者情報
type Contact struct {
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// IsEmpty は全項目が空かを判定
func (c Contact) IsEmpty() bool {
	return c == Contact{}
}

// LeadProspect は正規化済みの見込み客レコード。
// 任意項目の空文字は「データなし」を意味し、JSONでは省略される
type LeadProspect struct {
	ID           string   `json:"id"`
	CompanyName  string   `json:"companyName"`
	Summary      string   `json:"summary"`
	Location     string   `json:"location,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	CompanySize  string   `json:"companySize,omitempty"`
	Website      string   `json:"website,omitempty"`
	IntentSignal string   `json:"intentSignal,omitempty"`
	Contact      *Contact `json:"contact,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
}
