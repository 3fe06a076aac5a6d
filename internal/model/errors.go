// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind は認証フローのエラー分類を表す。
// 呼び出し側はHTTPステータスの決定にのみ使用する。
type ErrorKind string

// 定義済みエラー分類
const (
	KindClientInput      ErrorKind = "client_input"
	KindUpstreamProvider ErrorKind = "upstream_provider"
	KindStore            ErrorKind = "store"
)

// AuthError は分類付きの認証エラー。
type AuthError struct {
	Kind ErrorKind
	Op   string // 失敗した処理名
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewClientInputError はリクエスト入力不正のエラーを生成する。
func NewClientInputError(op string, err error) *AuthError {
	return &AuthError{Kind: KindClientInput, Op: op, Err: err}
}

// NewUpstreamProviderError はIdPへのリクエスト失敗のエラーを生成する。
func NewUpstreamProviderError(op string, err error) *AuthError {
	return &AuthError{Kind: KindUpstreamProvider, Op: op, Err: err}
}

// NewStoreError はストアの読み書き失敗のエラーを生成する。
func NewStoreError(op string, err error) *AuthError {
	return &AuthError{Kind: KindStore, Op: op, Err: err}
}

// KindOf はエラーチェーンからErrorKindを取り出す。
// AuthErrorを含まない場合はKindStoreとして扱う。
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindStore
}

// ErrMissingCode は認可コードが指定されていないことを示す。
var ErrMissingCode = errors.New("missing authorization code")

// ErrMissingRedirectBase はredirect_uriの基点URLが決定できないことを示す。
var ErrMissingRedirectBase = errors.New("redirect base URL is not configured and Origin header is absent")
