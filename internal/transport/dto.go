package transport

const (
	MsgRegistered         = "User Registered Successfully"
	MsgUsernameTaken      = "Username Already Registered"
	MsgInvalidCredentials = "Incorrect Username or Password"
	MsgLoggedOut          = "User Logged Out"
	MsgInvalidBody        = "invalid body"
	MsgInternal           = "internal error"
)

type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type LogoutRequest struct {
	Token string `json:"token" form:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}
