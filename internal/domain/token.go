package domain

// Token is the decoded body of the token endpoint. Access is the bearer value;
// Raw keeps the whole payload as returned.
type Token struct {
	Access string
	Raw    map[string]any
}

type Credentials struct {
	Username string
	Password string
	Hostname string
}

// String hides the password so Credentials can be logged safely.
func (c Credentials) String() string {
	return "Credentials{" + c.Username + "@" + c.Hostname + "}"
}
