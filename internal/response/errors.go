package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrStaffAccessOnly  ErrCode = "STAFF_ACCESS_ONLY"
	ErrNotAttemptOwner  ErrCode = "NOT_ATTEMPT_OWNER"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrAttemptLimit     ErrCode = "ATTEMPT_LIMIT_REACHED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrNoFieldsToUpdate ErrCode = "NO_FIELDS_TO_UPDATE"
	ErrInvalidReorder   ErrCode = "INVALID_REORDER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrPublishRejected  ErrCode = "PUBLISH_REJECTED"
	ErrAttemptSubmitted ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrQuizEmpty        ErrCode = "QUIZ_EMPTY"
	ErrInvalidAnswer    ErrCode = "INVALID_ANSWER"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrStaffAccessOnly:
		return "This action is available to teachers and admins only."
	case ErrNotAttemptOwner:
		return "This attempt belongs to another user."
	case ErrAlreadySubmitted:
		return "You already submitted this quiz."
	case ErrAttemptLimit:
		return "Attempt limit reached."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request body is malformed."
	case ErrNoFieldsToUpdate:
		return "No fields to update."
	case ErrInvalidReorder:
		return "Reorder items must assign every sibling exactly one rank from 1 to N."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrPublishRejected:
		return "The quiz cannot be published in its current state."
	case ErrAttemptSubmitted:
		return "This attempt has already been submitted."
	case ErrQuizEmpty:
		return "The quiz has no questions."
	case ErrInvalidAnswer:
		return "The submission references an option or question outside this quiz."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
