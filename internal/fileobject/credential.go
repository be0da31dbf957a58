package fileobject

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// uploadThingToken is the payload carried by an encoded UPLOADTHING_TOKEN.
type uploadThingToken struct {
	APIKey  string   `json:"apiKey"`
	AppID   string   `json:"appId"`
	Regions []string `json:"regions"`
}

var errNoAPIKey = errors.New("token payload has no apiKey")

// decodeToken extracts the API key from a base64 encoded JSON token.
func decodeToken(token string) (string, error) {
	token = strings.TrimSpace(token)

	var (
		raw []byte
		err error
	)

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		raw, err = enc.DecodeString(token)
		if err == nil {
			break
		}
	}

	if err != nil {
		return "", err
	}

	var payload uploadThingToken
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}

	if payload.APIKey == "" {
		return "", errNoAPIKey
	}

	return payload.APIKey, nil
}

// ResolveAPIKey returns the key to send to the provider. A token that does not
// decode is used verbatim; that is not an error.
func ResolveAPIKey(token string, logger Logger) string {
	apiKey, err := decodeToken(token)
	if err != nil {
		if logger != nil {
			logger.Debugw("uploadthing token is not an encoded payload, using it as the api key", "error", err)
		}
		return token
	}

	return apiKey
}
