package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nucleus/resource-core/internal/resource"
)

// AuthConfig applies authentication to outgoing requests.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth performs no authentication.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

// BasicAuth uses HTTP basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// BearerToken uses a bearer token in the Authorization header.
type BearerToken struct {
	Token string
}

func (a BearerToken) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// APIKey sends an API key in a custom header.
type APIKey struct {
	Key    string
	Header string // defaults to "X-API-Key"
}

func (a APIKey) Apply(req *http.Request) {
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, a.Key)
}

// AuthFromSettings builds an auth strategy from an "auth" sub-map:
//
//	auth: {type: basic, username: u, password: p}
//	auth: {type: bearer, token: t}
//	auth: {type: apiKey, key: k, header: X-Custom}
//
// A missing sub-map or type "none" yields NoAuth.
func AuthFromSettings(settings resource.Settings) (AuthConfig, error) {
	auth := settings.Sub("auth")
	if auth == nil {
		return NoAuth{}, nil
	}
	kind := strings.ToLower(auth.String("type", "kind"))
	switch kind {
	case "", "none":
		return NoAuth{}, nil
	case "basic":
		username := auth.String("username", "user")
		password := auth.String("password", "pass")
		if username == "" {
			return nil, resource.New(resource.KindValidation, "basic auth requires a username")
		}
		return BasicAuth{Username: username, Password: password}, nil
	case "bearer", "token":
		token := auth.String("token")
		if token == "" {
			return nil, resource.New(resource.KindValidation, "bearer auth requires a token")
		}
		return BearerToken{Token: token}, nil
	case "apikey", "api_key", "api-key":
		key := auth.String("key", "apiKey", "api_key")
		if key == "" {
			return nil, resource.New(resource.KindValidation, "api key auth requires a key")
		}
		return APIKey{Key: key, Header: auth.String("header")}, nil
	default:
		return nil, resource.New(resource.KindValidation,
			fmt.Sprintf("unknown auth type %q", kind)).
			WithDetail("known", "none, basic, bearer, apiKey")
	}
}
