package action

import "context"

// Repository はアクション履歴永続化の抽象です。履歴は追記専用です。
type Repository interface {
	Insert(ctx context.Context, record *Record) (*Record, error)
	// ListByEmployee は従業員のアクション履歴を新しい順で返します。
	ListByEmployee(ctx context.Context, ssid string) ([]*Record, error)
	// ListAll は全従業員のアクション履歴を新しい順で limit 件まで返します。
	ListAll(ctx context.Context, limit int) ([]*Record, error)
}
