package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

// SignUnsubscribeToken derives the opt-out token for a user. The token is an
// HMAC over the user id so links cannot be forged or retargeted at another
// user.
func SignUnsubscribeToken(userID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyUnsubscribeToken checks a presented token in constant time.
func VerifyUnsubscribeToken(userID, secret, token string) bool {
	expected := SignUnsubscribeToken(userID, secret)
	return hmac.Equal([]byte(expected), []byte(token))
}

// UnsubscribeURL builds the signed opt-out link embedded in each digest.
func UnsubscribeURL(baseURL, userID, secret string) string {
	return fmt.Sprintf("%s/unsubscribe?uid=%s&token=%s",
		baseURL, url.QueryEscape(userID), SignUnsubscribeToken(userID, secret))
}
