package twitterclient

////////////////////////////////////////////////////////////////////////////////

// urls
const (
	API_BASE_URL     = "https://api.twitter.com/1.1/"
	OAUTH2_TOKEN_URL = "https://api.twitter.com/oauth2/token"
)

// endpoints
const (
	ENDPOINT_USER_TIMELINE     = "statuses/user_timeline"
	ENDPOINT_FRIENDS_IDS       = "friends/ids"
	ENDPOINT_FOLLOWERS_IDS     = "followers/ids"
	ENDPOINT_USERS_LOOKUP      = "users/lookup"
	ENDPOINT_RATE_LIMIT_STATUS = "application/rate_limit_status"
)

// header keys
const (
	HEADER_USER_AGENT = "User-Agent"
)

// agent strings
const (
	USER_AGENT = "xCrawl/1.0"
)
