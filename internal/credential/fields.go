package credential

import (
	"encoding/base64"

	"sessionsplice/internal/protoedit"
)

// Field numbers of the target application's user state message.
const (
	FieldUserID protoedit.FieldNumber = 1
	FieldEmail  protoedit.FieldNumber = 2
	FieldOAuth  protoedit.FieldNumber = 6
)

// Field numbers of the OAuthTokenInfo message.
const (
	tokenFieldAccess  protoedit.FieldNumber = 1
	tokenFieldType    protoedit.FieldNumber = 2
	tokenFieldRefresh protoedit.FieldNumber = 3
	tokenFieldExpiry  protoedit.FieldNumber = 4

	timestampFieldSeconds protoedit.FieldNumber = 1
)

// UnifiedSentinelKey identifies the token entry inside the unified state message.
const UnifiedSentinelKey = "oauthTokenInfoSentinelKey"

// tokenInfo encodes the bare OAuthTokenInfo message:
// {1: access, 2: "Bearer", 3: refresh, 4: {1: expiry}}.
func tokenInfo(accessToken, refreshToken string, expiry int64) []byte {
	timestamp := protoedit.AppendVarintField(nil, timestampFieldSeconds, uint64(expiry))

	buf := make([]byte, 0, len(accessToken)+len(refreshToken)+len(timestamp)+24)
	buf = protoedit.AppendStringField(buf, tokenFieldAccess, accessToken)
	buf = protoedit.AppendStringField(buf, tokenFieldType, TokenType)
	buf = protoedit.AppendStringField(buf, tokenFieldRefresh, refreshToken)
	buf = protoedit.AppendBytesField(buf, tokenFieldExpiry, timestamp)
	return buf
}

// BuildOAuthField returns the OAuthTokenInfo message wrapped as field 6 of the
// user state message.
func BuildOAuthField(accessToken, refreshToken string, expiry int64) []byte {
	return protoedit.AppendBytesField(nil, FieldOAuth, tokenInfo(accessToken, refreshToken, expiry))
}

// BuildEmailField returns the email as field 2 of the user state message.
func BuildEmailField(email string) []byte {
	return protoedit.AppendStringField(nil, FieldEmail, email)
}

// BuildUnifiedTokenMessage returns the message stored under the unified
// token key. The token info travels as base64 text inside two wrappers:
//
//	{1: {1: UnifiedSentinelKey, 2: {1: base64(tokenInfo)}}}
func BuildUnifiedTokenMessage(accessToken, refreshToken string, expiry int64) []byte {
	encoded := base64.StdEncoding.EncodeToString(tokenInfo(accessToken, refreshToken, expiry))

	inner := protoedit.AppendStringField(nil, 1, encoded)

	outer := protoedit.AppendStringField(nil, 1, UnifiedSentinelKey)
	outer = protoedit.AppendBytesField(outer, 2, inner)

	return protoedit.AppendBytesField(nil, 1, outer)
}
