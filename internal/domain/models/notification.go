package models

// Notification is a push message addressed to a single device or phone.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Identity is the caller resolved from the bearer token.
type Identity struct {
	UID  string
	Role Role
}
