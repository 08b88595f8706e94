package authentic

// Default client-facing messages. The whole catalog can be swapped at
// once through Settings.Messages for localization.
const (
	MsgInvalidPassword  = "Invalid password."
	MsgPasswordMismatch = "Mismatch password."
	MsgCannotCreateUser = "Unable to create account."
	MsgInvalidUID       = "Invalid uid."
	MsgInvalidToken     = "Invalid token."
	MsgAlreadyActivated = "User is already validated."
	MsgUserNotExists    = "Email is not exists."
)

// Messages is the catalog of error strings surfaced to clients.
type Messages struct {
	InvalidPassword  string
	PasswordMismatch string
	CannotCreateUser string
	InvalidUID       string
	InvalidToken     string
	AlreadyActivated string
	UserNotExists    string
}

// DefaultMessages returns the built in catalog.
func DefaultMessages() Messages {
	return Messages{
		InvalidPassword:  MsgInvalidPassword,
		PasswordMismatch: MsgPasswordMismatch,
		CannotCreateUser: MsgCannotCreateUser,
		InvalidUID:       MsgInvalidUID,
		InvalidToken:     MsgInvalidToken,
		AlreadyActivated: MsgAlreadyActivated,
		UserNotExists:    MsgUserNotExists,
	}
}
