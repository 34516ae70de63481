package auth

import (
	"encoding/json"
	"net/http"
)

// Echo is the JSON view of a published identity. Absent values are omitted.
type Echo struct {
	Token             string     `json:"oauth_token,omitempty"`
	ClientApplication string     `json:"client_application,omitempty"`
	Version           Version    `json:"oauth_version,omitempty"`
	Strategies        []Strategy `json:"strategies,omitempty"`
}

// NewEcho builds the view of id. A nil id yields an empty Echo.
func NewEcho(id *Identity) Echo {
	var e Echo
	if id == nil {
		return e
	}
	if id.Token != nil {
		e.Token = id.Token.Value
	}
	if id.Consumer != nil {
		e.ClientApplication = id.Consumer.Key
	}
	e.Version = id.Version
	e.Strategies = id.Strategies
	return e
}

// EchoHandler writes the identity published for the request as JSON.
func EchoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(NewEcho(IdentityFromContext(r.Context())))
}
