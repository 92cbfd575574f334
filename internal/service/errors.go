package service

type ErrorCode string

const (
	ErrorCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeNameTaken          ErrorCode = "NAME_TAKEN"
	ErrorCodeUsernameTaken      ErrorCode = "USERNAME_TAKEN"
	ErrorCodeLeaderTaken        ErrorCode = "LEADER_TAKEN"
	ErrorCodeBadReference       ErrorCode = "BAD_REFERENCE"
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrorCodeSelfDelete         ErrorCode = "SELF_DELETE"
	ErrorCodeUnspecified        ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
