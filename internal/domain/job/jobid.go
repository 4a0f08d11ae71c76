package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobID はパイプライン呼び出し1回ごとの識別子を表す値オブジェクト
type JobID struct {
	value string
}

// NewJobID は新しいJobIDを生成
func NewJobID() JobID {
	return newJobIDAt(time.Now())
}

func newJobIDAt(now time.Time) JobID {
	// フォーマット: YYYYMMDD-HHMMSS-{UUID先頭8文字}
	return JobID{
		value: fmt.Sprintf("%s-%s", now.Format("20060102-150405"), uuid.New().String()[:8]),
	}
}

// maxExternalLen を超える外部IDは相関IDとして受け入れない
const maxExternalLen = 128

// JobIDFromString は呼び出し元が渡した相関IDをJobIDとして受け入れる。
// 空白のみ・長すぎる・制御文字を含む値はゼロ値になる
func JobIDFromString(s string) JobID {
	s = strings.TrimSpace(s)
	if len(s) > maxExternalLen {
		return JobID{}
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return JobID{}
		}
	}
	return JobID{value: s}
}

// String はJobIDの文字列表現を返す
func (j JobID) String() string {
	return j.value
}

// IsZero はJobIDがゼロ値かを判定
func (j JobID) IsZero() bool {
	return j.value == ""
}

// NewEntityID はリードやルールに付与するIDを生成
func NewEntityID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

type ctxKey struct{}

// WithJobID はJobIDをコンテキストに載せる。ゼロ値なら ctx をそのまま返す
func WithJobID(ctx context.Context, id JobID) context.Context {
	if id.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext はコンテキストのJobIDを返す。無ければ新しく採番する
func FromContext(ctx context.Context) JobID {
	if id, ok := ctx.Value(ctxKey{}).(JobID); ok && !id.IsZero() {
		return id
	}
	return NewJobID()
}
