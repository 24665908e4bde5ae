package service

import (
	"strconv"
	"strings"

	"github.com/tedlabs/identity/internal/model"
)

// SocialIdentity is the canonical identity record extracted from a provider's
// raw attribute payload. Empty fields mean the provider did not supply the
// value; extraction itself never fails.
type SocialIdentity struct {
	ProviderUserID string
	Email          string
	DisplayName    string
}

type attributeExtractor interface {
	Extract(attrs map[string]any) SocialIdentity
}

var extractors = map[model.Provider]attributeExtractor{
	model.ProviderGoogle: googleExtractor{},
	model.ProviderKakao:  kakaoExtractor{},
	model.ProviderNaver:  naverExtractor{},
	model.ProviderApple:  appleExtractor{},
}

// ExtractIdentity maps a provider's raw attribute payload to the canonical
// identity triple. Missing intermediate nesting yields empty fields, never an
// error; every field is independently optional.
func ExtractIdentity(provider model.Provider, attrs map[string]any) SocialIdentity {
	extractor, ok := extractors[provider]
	if !ok {
		return SocialIdentity{}
	}
	return extractor.Extract(attrs)
}

// googleExtractor reads the flat OIDC userinfo shape.
type googleExtractor struct{}

func (googleExtractor) Extract(attrs map[string]any) SocialIdentity {
	return SocialIdentity{
		ProviderUserID: stringValue(attrs, "sub"),
		Email:          stringValue(attrs, "email"),
		DisplayName:    stringValue(attrs, "name"),
	}
}

// kakaoExtractor reads Kakao's numeric top-level id and the nested
// kakao_account block.
type kakaoExtractor struct{}

func (kakaoExtractor) Extract(attrs map[string]any) SocialIdentity {
	identity := SocialIdentity{
		ProviderUserID: stringify(attrs["id"]),
	}

	account, ok := nestedMap(attrs, "kakao_account")
	if !ok {
		return identity
	}
	identity.Email = stringValue(account, "email")

	if profile, ok := nestedMap(account, "profile"); ok {
		identity.DisplayName = stringValue(profile, "nickname")
	}
	return identity
}

// naverExtractor reads everything from the nested response block.
type naverExtractor struct{}

func (naverExtractor) Extract(attrs map[string]any) SocialIdentity {
	response, ok := nestedMap(attrs, "response")
	if !ok {
		return SocialIdentity{}
	}
	return SocialIdentity{
		ProviderUserID: stringValue(response, "id"),
		Email:          stringValue(response, "email"),
		DisplayName:    stringValue(response, "name"),
	}
}

// appleExtractor reads the flat shape, except that Apple sends the name either
// as a plain string or as a {firstName, lastName} object on first login.
type appleExtractor struct{}

func (appleExtractor) Extract(attrs map[string]any) SocialIdentity {
	identity := SocialIdentity{
		ProviderUserID: stringValue(attrs, "sub"),
		Email:          stringValue(attrs, "email"),
	}

	switch name := attrs["name"].(type) {
	case string:
		identity.DisplayName = name
	case map[string]any:
		combined := strings.TrimSpace(stringify(name["firstName"]) + " " + stringify(name["lastName"]))
		identity.DisplayName = combined
	}
	return identity
}

// stringValue returns the string at key, or "" when absent or not a string.
func stringValue(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// nestedMap returns the object at key, or false when absent or not an object.
func nestedMap(m map[string]any, key string) (map[string]any, bool) {
	nested, ok := m[key].(map[string]any)
	return nested, ok
}

// stringify coerces scalar attribute values to strings. JSON decoding yields
// float64 for numbers, so integral ids format without an exponent.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case nil:
		return ""
	default:
		return ""
	}
}
