package domain

// User is the remote profile of the connected reader. It is fetched once per
// connection and only kept in memory.
type User struct {
	ID           ID     `json:"id,omitempty"`
	Username     string `json:"username"`
	Fullname     string `json:"fullname"`
	AvatarURL    string `json:"avatar_url"`
	PermalinkURL string `json:"permalink_url"`
}
