package employee

import (
	"context"
	"time"
)

// Repository は従業員永続化の抽象です。
type Repository interface {
	// Upsert は SSID をキーにコア属性を作成または置換します。
	// 既存レコードの提案スナップショットや分析・退職タイムスタンプは保持されます。
	Upsert(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	FindBySSID(ctx context.Context, ssid string) (*Employee, error)
	// FindBySSIDForUpdate は行ロックを取得して従業員を取得します。
	// 同一従業員に対するアクション適用を直列化するために使用します。
	FindBySSIDForUpdate(ctx context.Context, ssid string) (*Employee, error)
	ListByStatus(ctx context.Context, statuses []Status) ([]*Employee, error)
	// StoreSuggestion は提案スナップショットと分析時刻を丸ごと置き換えます。
	StoreSuggestion(ctx context.Context, ssid string, suggestion *Suggestion, analyzedAt time.Time) error
}
