package model

import "time"

// AuditAction は監査ログに記録する操作の種類を表す。
type AuditAction string

const (
	AuditUpdate       AuditAction = "UPDATE"
	AuditDelete       AuditAction = "DELETE"
	AuditCreate       AuditAction = "CREATE"
	AuditShow         AuditAction = "SHOW"
	AuditLogin        AuditAction = "LOGIN"
	AuditLogout       AuditAction = "LOGOUT"
	AuditVerifyEmail  AuditAction = "VERIFY_EMAIL"
	AuditRegister     AuditAction = "REGISTER"
	AuditReceiveToken AuditAction = "RECEIVE_TOKEN"
)

// AuditActions は有効な監査アクションの一覧。
var AuditActions = []AuditAction{
	AuditUpdate, AuditDelete, AuditCreate, AuditShow, AuditLogin,
	AuditLogout, AuditVerifyEmail, AuditRegister, AuditReceiveToken,
}

// Valid は閉じた集合に含まれるアクションかを返す。
func (a AuditAction) Valid() bool {
	for _, v := range AuditActions {
		if v == a {
			return true
		}
	}
	return false
}

// AuditEntry は追記専用の監査ログ1件を表す。
type AuditEntry struct {
	ID          string
	AccountID   string
	Action      AuditAction
	Description string
	CreatedAt   time.Time
}
