package models

// Profile is the identity returned by a directory backend after a
// successful primary-credential check.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	DN          string `json:"-"` // Distinguished name, LDAP backends only
}
