// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Fortune は1ユーザー・1日分の生成済み運勢を表す。
// (UserID, Date) の組で一意であり、保存後は更新しない。
type Fortune struct {
	ID        string            `json:"id"` // "<userId>:<date>"
	UserID    string            `json:"userId"`
	Date      string            `json:"date"` // YYYY-MM-DD
	Summary   string            `json:"summary"`
	FullText  string            `json:"fullText"`
	Color     string            `json:"color"`
	Precision BirthTimeAccuracy `json:"precision"`
	Locale    Locale            `json:"locale"`
	Model     string            `json:"model"`
	Keywords  []string          `json:"keywords,omitempty"`
	Quote     string            `json:"quote,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// BuildFortuneID は(userID, date)の複合キーを単一の不透明IDに合成する。
func BuildFortuneID(userID, date string) string {
	return fmt.Sprintf("%s:%s", userID, date)
}

// GeneratedFortune は生成器の出力を表す。そのままでは永続化されず、
// ユースケース層がFortuneに組み立ててから保存する。
type GeneratedFortune struct {
	Summary   string
	FullText  string
	Color     string
	Precision BirthTimeAccuracy
	Model     string
	Keywords  []string
	Quote     string
}

// ChatRole はチャットメッセージの発話者ロールを表す。
type ChatRole string

const (
	// ChatRoleSystem はシステム指示メッセージ。
	ChatRoleSystem ChatRole = "system"
	// ChatRoleUser はユーザー発話メッセージ。
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant はアシスタント応答メッセージ。
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage はフォローアップ質問チャットの1メッセージを表す。
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
