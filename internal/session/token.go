// Package session はセッションの発行・解決・破棄を提供する。
//
// セッションは不透明なトークンをキーとするレコードで、有効性は読み出し時に
// expiresと現在時刻を比較して判定する。期限切れレコードは削除しない。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes はトークンの乱数バイト長（hexで64文字）。
const tokenBytes = 32

// GenerateToken は暗号的に安全なセッショントークンを生成する。
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
