package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

const recordKeyPrefix = OptionName + "/"

// PublicToken derives the URL token for a (user, redirect) pair. It is
// deterministic per deployment so repeated issuance finds the same record.
func PublicToken(endpoint, userID, redirect string) string {
	sum := sha256.Sum256([]byte(endpoint + "|" + userID + "|" + redirect))
	return hex.EncodeToString(sum[:])
}

func recordKey(public string) string {
	return recordKeyPrefix + public
}

// Signature is the plaintext that gets hashed into MagicRecord.Private.
// host is ignored unless validateDomain is set.
func Signature(public, endpoint, host, userID string, validateDomain bool) string {
	if validateDomain {
		return public + "|" + endpoint + "|" + host + "|" + userID
	}
	return public + "|" + endpoint + "|" + userID
}

// hostname strips the port from a Host header value.
func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}
