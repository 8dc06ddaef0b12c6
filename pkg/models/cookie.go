package models

// Cookie is a single browser cookie record. JSON field names follow the
// browser cookies.json export format so exported files can be dropped in
// directly.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
}

// CookieSet is an ordered collection of cookies.
type CookieSet []Cookie

// Names returns the cookie names in order. Values are deliberately not
// exposed here; diagnostics and logs must only ever see names.
func (s CookieSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, c := range s {
		names = append(names, c.Name)
	}
	return names
}
