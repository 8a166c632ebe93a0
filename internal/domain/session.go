package domain

import "time"

// Session is the offline access grant a shop issued to the app during install
type Session struct {
	ID          string    `json:"id"`
	Shop        string    `json:"shop"`
	AccessToken string    `json:"-"`
	Scopes      []string  `json:"scopes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OAuthState ties an authorize redirect to the shop that requested it
type OAuthState struct {
	Nonce string
	Shop  string
}
