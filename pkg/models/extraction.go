package models

// RawState is the parsed embedded application state of a page. No fixed
// schema; values are whatever encoding/json produces for the blob.
type RawState map[string]interface{}

// NoteDetail returns the note-detail mapping from the state, keyed by note
// ID. A nil result means the state carries no usable note content.
func (s RawState) NoteDetail() map[string]interface{} {
	note, ok := s["note"].(map[string]interface{})
	if !ok {
		return nil
	}
	if m, ok := note["noteDetailMap"].(map[string]interface{}); ok && len(m) > 0 {
		return m
	}
	return nil
}

// FirstNoteID returns the ID the page considers primary, used to select the
// entry within the note-detail mapping. Empty when the state does not name
// one.
func (s RawState) FirstNoteID() string {
	note, ok := s["note"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := note["firstNoteId"].(string)
	return id
}

// HasNoteDetail reports whether the state contains a non-empty note-detail
// mapping. Used both as the extraction validity gate and as the login
// verification check.
func (s RawState) HasNoteDetail() bool {
	return len(s.NoteDetail()) > 0
}

// Diagnostics captures the page context around a failed extraction. The
// fields are for error reporting only and are never parsed.
type Diagnostics struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	HTMLSample  string `json:"html_sample"`
	CookieCount int    `json:"cookie_count"`
	LockPresent bool   `json:"lock_present"`
}

// ExtractionResult is the outcome of one extraction cascade run. Exactly
// one of State or Diagnostics is meaningful: State non-nil means a strategy
// succeeded and Strategy names it.
type ExtractionResult struct {
	State       RawState
	Strategy    string
	Diagnostics *Diagnostics
}

// Found reports whether the cascade produced a state object.
func (r *ExtractionResult) Found() bool {
	return r != nil && r.State != nil
}
