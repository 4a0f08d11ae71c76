package lead

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrLeadNotFound はリードが存在しない場合のエラー
var ErrLeadNotFound = errors.New("lead not found")

// ErrRuleNotFound はスコアリングルールが存在しない場合のエラー
var ErrRuleNotFound = errors.New("scoring rule not found")

// Lead は見込み顧客レコードを表す
type Lead struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Company      string            `json:"company"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Source       string            `json:"source,omitempty"`
	Status       string            `json:"status,omitempty"`
	Industry     string            `json:"industry,omitempty"`
	CompanySize  string            `json:"companySize,omitempty"`
	Score        int               `json:"score"`
	Tags         []string          `json:"tags,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Field は属性名に対応する値を文字列化して返す。
// 未知の属性名はカスタムフィールドとして探し、見つからなければ false
func (l Lead) Field(name string) (string, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "name":
		return l.Name, true
	case "company":
		return l.Company, true
	case "email":
		return l.Email, true
	case "phone":
		return l.Phone, true
	case "source":
		return l.Source, true
	case "status":
		return l.Status, true
	case "industry":
		return l.Industry, true
	case "companySize":
		return l.CompanySize, true
	case "score":
		return strconv.Itoa(l.Score), true
	case "tags":
		return strings.Join(l.Tags, ","), true
	}

	if v, ok := l.CustomFields[name]; ok {
		return v, true
	}
	return "", false
}

// WithScore はスコアを差し替えた新しいLeadを返す
func (l Lead) WithScore(score int) Lead {
	l.Score = score
	return l
}
