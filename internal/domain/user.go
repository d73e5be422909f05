package domain

// User is the storefront's view of a signed-in marketplace account. The
// access token is issued by the remote API and forwarded on every call.
type User struct {
	ID          string `db:"user_id"`
	Name        string `db:"name"`
	AccessToken string `db:"access_token"`
}
