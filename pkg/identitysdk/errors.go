package identitysdk

import (
	"fmt"
	"net/http"
)

// Envelope codes a client is likely to branch on. The full list lives with
// the server's error taxonomy.
const (
	CodeDuplicateLoginID             = 1001
	CodeInvalidCredentials           = 1002
	CodeInvalidVerificationToken     = 1003
	CodeInvalidOAuth2State           = 1004
	CodeAccountNotFound              = 1006
	CodePendingAdminApprovalRequired = 1007
	CodeAccountNotActive             = 1009
	CodeRefreshTokenMismatch         = 1012
	CodeTokenInvalid                 = 1013
	CodeInvalidRequest               = 1015
	CodeOTPRequired                  = 1018
)

// Error is a non-success envelope returned by the service.
type Error struct {
	Status  int
	Code    int
	Message string
	// Fields holds per-field validation messages for CodeInvalidRequest.
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %d %s (code %d): %s", e.Status, http.StatusText(e.Status), e.Code, e.Message)
}
