package expr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainExpr = "kattis-cli/expr/v1"
	DomainRule = "kattis-cli/rule/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a single expression.
func Fingerprint(e Expr) (string, error) {
	canonical, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainExpr, canonical), nil
}

// RuleFingerprint hashes the identifying fields of a rule. Two rules with
// the same condition, target, formula and name share a fingerprint no matter
// which file they came from.
func RuleFingerprint(needs Expr, towards string, points Expr, name string) (string, error) {
	obj := Object{
		"needs":   needs,
		"towards": String(towards),
		"points":  points,
		"name":    String(name),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("rule fingerprint: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}
