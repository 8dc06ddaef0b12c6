package models

import "time"

// LoginState is the poll outcome status.
type LoginState string

const (
	LoginSuccess LoginState = "success"
	LoginWaiting LoginState = "waiting"
)

// LoginDiagnostics is the last observed page snapshot when a poll ends
// without success. Cookie names only; values never leave the session.
type LoginDiagnostics struct {
	Title               string   `json:"title"`
	URL                 string   `json:"url"`
	HasLockClass        bool     `json:"has_lock_class"`
	CookiesCount        int      `json:"cookies_count"`
	CookieNamesPreview  []string `json:"cookie_names_preview"`
	RuntimeStatePreview string   `json:"runtime_state_preview"`
}

// LoginStatus is the result of waiting on a login session.
type LoginStatus struct {
	Status       LoginState        `json:"status"`
	CookiesCount int               `json:"cookies_count,omitempty"`
	Timeout      int               `json:"timeout,omitempty"`
	LastURL      string            `json:"last_url,omitempty"`
	Diagnostics  *LoginDiagnostics `json:"debug,omitempty"`
}

// LoginEvent is an audit record of a login session lifecycle transition.
type LoginEvent struct {
	ID        uint64     `json:"id" badgerhold:"key"`
	SessionID string     `json:"session_id" badgerhold:"index"`
	Phase     string     `json:"phase"`
	Status    LoginState `json:"status,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
