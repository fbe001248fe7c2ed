package repository

import "strings"

const (
	UserProfilePrefix       = "user_profile:"       // <userID>
	UserEmailPrefix         = "user_email:"         // <email>
	UserCredentialsPrefix   = "user_credentials:"   // <email>
	PostPrefix              = "post:"               // <postID>
	PostCommentsPrefix      = "post_comments:"      // <postID>
	UserNotificationsPrefix = "user_notifications:" // <userID>
	UserPostsPrefix         = "user_posts:"         // <userID>
	RevokedTokenPrefix      = "revoked_token:"      // <jti>
)

func UserProfileKey(userID string) string {
	return UserProfilePrefix + userID
}

// UserEmailKey lower-cases the address so lookups are case-insensitive.
func UserEmailKey(email string) string {
	return UserEmailPrefix + NormalizeEmail(email)
}

func UserCredentialsKey(email string) string {
	return UserCredentialsPrefix + NormalizeEmail(email)
}

func PostKey(postID string) string {
	return PostPrefix + postID
}

func PostCommentsKey(postID string) string {
	return PostCommentsPrefix + postID
}

func UserNotificationsKey(userID string) string {
	return UserNotificationsPrefix + userID
}

func UserPostsKey(userID string) string {
	return UserPostsPrefix + userID
}

func RevokedTokenKey(jti string) string {
	return RevokedTokenPrefix + jti
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
