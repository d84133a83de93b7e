package models

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validationError"
	case KindUnauthorized:
		return "unAuthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "notFound"
	case KindConflict:
		return "conflict"
	}
	return "internalError"
}

// AppError is a domain failure the HTTP layer can render without leaking
// storage details. Two AppErrors match under errors.Is when their codes match.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithField returns a copy of e pointing at the offending input field.
func (e *AppError) WithField(field, message string) *AppError {
	cp := *e
	cp.Field = field
	if message != "" {
		cp.Message = message
	}
	return &cp
}

// Wrap returns a copy of e carrying cause.
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.Err = cause
	return &cp
}

var (
	ErrMissingField        = &AppError{Kind: KindValidation, Code: "missing_field", Message: "This field is required."}
	ErrInvalidCookingTime  = &AppError{Kind: KindValidation, Code: "invalid_cooking_time", Field: "cooking_time", Message: "Cooking time must be at least 1 minute."}
	ErrInvalidAmount       = &AppError{Kind: KindValidation, Code: "invalid_amount", Field: "ingredients", Message: "Ingredient amount must be at least 1."}
	ErrDuplicateIngredient = &AppError{Kind: KindValidation, Code: "duplicate_ingredient", Field: "ingredients", Message: "Ingredients must not repeat."}
	ErrUnknownReference    = &AppError{Kind: KindValidation, Code: "unknown_reference", Message: "Referenced object does not exist."}
	ErrInvalidImage        = &AppError{Kind: KindValidation, Code: "invalid_image", Field: "image", Message: "Image must be a base64 data URL."}
	ErrSelfFollowForbidden = &AppError{Kind: KindValidation, Code: "self_follow_forbidden", Field: "author", Message: "You cannot subscribe to yourself."}
	ErrInvalidRecipesLimit = &AppError{Kind: KindValidation, Code: "invalid_recipes_limit", Field: "recipes_limit", Message: "recipes_limit must not be negative."}
	ErrInvalidPassword     = &AppError{Kind: KindValidation, Code: "invalid_password", Field: "current_password", Message: "Current password is incorrect."}

	ErrAlreadyExists    = &AppError{Kind: KindConflict, Code: "already_exists", Message: "Recipe is already in the list."}
	ErrAlreadyFollowing = &AppError{Kind: KindConflict, Code: "already_following", Field: "author", Message: "You are already subscribed to this author."}
	ErrRecipeNameTaken  = &AppError{Kind: KindConflict, Code: "recipe_name_taken", Field: "name", Message: "A recipe with this name already exists."}
	ErrUserExists       = &AppError{Kind: KindConflict, Code: "user_exists", Field: "email", Message: "A user with this email or username already exists."}
	ErrTagSlugTaken     = &AppError{Kind: KindConflict, Code: "tag_slug_taken", Field: "slug", Message: "A tag with this slug already exists."}

	ErrUnauthorized       = &AppError{Kind: KindUnauthorized, Code: "not_authenticated", Message: "Authentication credentials were not provided."}
	ErrInvalidCredentials = &AppError{Kind: KindUnauthorized, Code: "invalid_credentials", Message: "Unable to log in with provided credentials."}
	ErrForbidden          = &AppError{Kind: KindForbidden, Code: "permission_denied", Message: "You do not have permission to perform this action."}
	ErrNotFound           = &AppError{Kind: KindNotFound, Code: "not_found", Message: "Not found."}
)

// AlreadyExistsError is the "already in the list" error of a membership kind.
func (k MembershipKind) AlreadyExistsError() *AppError {
	switch k {
	case KindFavorite:
		return ErrAlreadyExists.WithField("recipe", "Recipe is already in favorites.")
	case KindShoppingCart:
		return ErrAlreadyExists.WithField("recipe", "Recipe is already in the shopping cart.")
	}
	return ErrAlreadyExists
}

// AsAppError reports whether err carries an AppError and returns it.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
