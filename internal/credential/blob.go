package credential

import (
	"encoding/base64"
	"fmt"

	"sessionsplice/internal/protoedit"
)

// EditLegacyBlob rewrites the base64 user state stored under the legacy key
// so that it carries email and cred. The user id, email and token fields are
// removed; only email and token are added back, so the target application
// re-establishes the user id on its next start. Fields it does not know are
// preserved byte-for-byte.
//
// On any error the input must be left in place: nothing partial is returned.
func EditLegacyBlob(oldBase64, email string, cred Credential) (string, error) {
	if err := cred.Validate(); err != nil {
		return "", err
	}

	blob, err := base64.StdEncoding.DecodeString(oldBase64)
	if err != nil {
		return "", fmt.Errorf("decoding legacy state: %w", err)
	}

	for _, number := range []protoedit.FieldNumber{FieldUserID, FieldEmail, FieldOAuth} {
		blob, err = protoedit.RemoveField(blob, number)
		if err != nil {
			return "", fmt.Errorf("removing field %d from legacy state: %w", number, err)
		}
	}

	emailField := BuildEmailField(email)
	oauthField := BuildOAuthField(cred.AccessToken, cred.RefreshToken, cred.Expiry)

	out := make([]byte, 0, len(blob)+len(emailField)+len(oauthField))
	out = append(out, blob...)
	out = append(out, emailField...)
	out = append(out, oauthField...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// UnifiedTokenValue returns the base64 value written under the unified token key.
func UnifiedTokenValue(cred Credential) string {
	return base64.StdEncoding.EncodeToString(
		BuildUnifiedTokenMessage(cred.AccessToken, cred.RefreshToken, cred.Expiry))
}

// LegacySummary describes the identity fields of a legacy user state blob.
type LegacySummary struct {
	Email       string
	HasUserID   bool
	HasToken    bool
	AccessToken string
	Fields      []protoedit.Field
}

// InspectLegacyBlob decodes a legacy blob and reports what it contains.
func InspectLegacyBlob(b64 string) (*LegacySummary, []byte, error) {
	blob, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding legacy state: %w", err)
	}

	fields, err := protoedit.Fields(blob)
	if err != nil {
		return nil, blob, err
	}

	summary := &LegacySummary{Fields: fields}
	if email, ok := protoedit.FindField(blob, FieldEmail); ok {
		summary.Email = string(email)
	}
	_, summary.HasUserID = protoedit.FindField(blob, FieldUserID)
	if info, ok := protoedit.FindField(blob, FieldOAuth); ok {
		summary.HasToken = true
		if access, ok := protoedit.FindField(info, tokenFieldAccess); ok {
			summary.AccessToken = string(access)
		}
	}
	return summary, blob, nil
}
