package jwt

type Role int

const (
	RoleUser Role = iota
)

// User is the subject of a dashboard access token.
type User struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}
