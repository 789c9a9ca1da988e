package domain

// User is a console account record as persisted in the auth file. The JSON
// field names are the on-disk format and must not change: existing
// installations carry files written by earlier versions.
type User struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Admin           bool   `json:"admin"`
	HashedPassword  string `json:"hashedPassword,omitempty"`
	Salt            string `json:"salt,omitempty"`
	OtpSecret       string `json:"otpSecret,omitempty"`
	OtpActive       bool   `json:"otpActive,omitempty"`
	OtpLegacySecret bool   `json:"otpLegacySecret,omitempty"`
}

// Desensitized returns the view of the record that may leave the auth
// subsystem: secret material is stripped, the OTP state flags stay.
func (u User) Desensitized() User {
	u.HashedPassword = ""
	u.Salt = ""
	u.OtpSecret = ""
	return u
}

// NewUser carries the caller-supplied fields for account creation. The
// plaintext password never reaches a stored record; it is stretched into a
// (hashedPassword, salt) pair on the way in.
type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// UserPatch is a partial update. Nil fields leave the record unchanged; an
// explicit value overwrites, including Admin demotion.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Admin    *bool   `json:"admin,omitempty"`
	Password *string `json:"password,omitempty"`
}
