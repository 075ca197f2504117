package auth

import (
	"encoding/base64"
	"strings"
)

// schemeBasic はBasic認証のスキーム名。
const schemeBasic = "Basic"

// Extract はAuthorizationヘッダーの値から生のトークンを取り出す。
//
// ヘッダーは "<scheme> <data>" の形式でなければならない。
// schemeが "Basic" の場合はdataをBase64デコードした値を、
// それ以外のスキームの場合はdataをそのままベアラートークンとして返す。
// ヘッダーが空、形式が不正、Base64デコードに失敗した場合はokにfalseを返す。
// この関数はパニックもエラーも返さない。
func Extract(header string) (token string, ok bool) {
	if header == "" {
		return "", false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	scheme, data := parts[0], parts[1]

	if scheme != schemeBasic {
		return data, true
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}
