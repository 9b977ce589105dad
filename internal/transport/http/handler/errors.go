package handler

const (
	errInternalServer = "Internal server error"
	errLinkNotFound   = "No live link for this user and redirect"
	errUserNotFound   = "User not found"
	errNotFound       = "Not found"
)
