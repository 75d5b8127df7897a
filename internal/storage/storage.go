// Package storage はローカルキーバリューストレージの抽象を提供する。
package storage

// Client はキー単位のJSON読み書きインターフェース。
// 読み取りは「値が存在し正常に復元できた場合」のみtrueを返す。
// 壊れた保存値は「存在しない」として扱い、エラーは呼び出し元に伝播しない。
// 書き込みは失敗してもエラーを返さない（ログにのみ記録する）。
type Client interface {
	// Read はkeyの値をvにJSONデコードする。
	// 値が存在しない、または復元に失敗した場合はfalseを返す。
	Read(key string, v any) bool

	// Write はvをJSONエンコードしてkeyに保存する。
	// 失敗はログに記録し、呼び出し元には伝播しない。
	Write(key string, v any)

	// Delete はkeyの値を削除する。存在しないキーの削除は何もしない。
	Delete(key string)
}

// キー名前空間。ローカル保存データは2つの名前空間に分かれる:
// プロフィール1件と、運勢IDからFortuneへのマップ1件。
const (
	// UserKeyPrefix はローカルプロフィールのキープレフィックス。
	UserKeyPrefix = "fortunecrack:user:"
	// FortunesKeyPrefix はローカル運勢マップのキープレフィックス。
	FortunesKeyPrefix = "fortunecrack:fortunes:"
)

// UserKey は指定ユーザーのローカルプロフィールキーを返す。
func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

// FortunesKey は指定ユーザーのローカル運勢マップキーを返す。
func FortunesKey(userID string) string {
	return FortunesKeyPrefix + userID
}
