package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeEnvelope parses one raw stream entry into an Envelope and checks the
// required block metadata is present.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if err := validate.Struct(&env); err != nil {
		return nil, fmt.Errorf("validate envelope: %w", err)
	}
	env.TxHash = strings.ToLower(env.TxHash)
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into dst and validates its
// required fields. Address fields are normalised by the callers that own them.
func DecodePayload(e *Envelope, dst interface{}) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate %s payload: %w", e.Name, err)
	}
	return nil
}

// NormalizeAddress lower-cases a hex address so that the same account always
// maps to the same entity id.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
