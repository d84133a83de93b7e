package helper

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"foodgram/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.uber.org/zap"
)

const (
	codeValidationError   = 400
	codeUnauthorizedError = 401
	codeForbiddenError    = 403
	codeNotFound          = 404
	codeInternalError     = 500

	nonFieldErrors = "non_field_errors"
	identityKey    = "identity"
)

var (
	hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// HTTPHelper renders responses and errors in one shape for every handler.
type HTTPHelper struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

var (
	setupOnce sync.Once
	shared    *HTTPHelper
	setupErr  error
)

// NewHTTPHelper wires gin's validator with the custom tags and English
// messages. Validator registration is global, so every caller shares one
// helper.
func NewHTTPHelper() (*HTTPHelper, error) {
	setupOnce.Do(func() {
		shared, setupErr = newHTTPHelper()
	})
	return shared, setupErr
}

func newHTTPHelper() (*HTTPHelper, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, errors.New("gin validator engine is not validator/v10")
	}

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return Underscore(fld.Name)
		}
		return name
	})
	if err := v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	custom := map[string]string{
		"hex_color": "{0} must be a hex color such as #49B64E",
		"slug":      "{0} may contain only letters, digits, hyphens and underscores",
	}
	for tag, text := range custom {
		tag, text := tag, text
		err := v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, text, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			})
		if err != nil {
			return nil, err
		}
	}
	return &HTTPHelper{Validate: v, Translator: trans}, nil
}

// SendAppError maps a service error to its HTTP status. Errors that are not
// AppErrors are logged and rendered as 500 without details.
func (u *HTTPHelper) SendAppError(c *gin.Context, err error) {
	appErr, ok := models.AsAppError(err)
	if !ok {
		zap.L().Error("unhandled error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		u.sendError(c, http.StatusInternalServerError, codeInternalError, "internalError", "Internal server error.", nil)
		return
	}

	status, code := u.GetStatusCode(appErr.Kind)
	field := appErr.Field
	if field == "" {
		field = nonFieldErrors
	}
	u.sendError(c, status, code, appErr.Kind.String(), appErr.Message, map[string][]string{
		field: {appErr.Message},
	})
}

// GetStatusCode returns the HTTP status and the response code for kind.
// Conflicts are reported as 400 like other request errors.
func (u *HTTPHelper) GetStatusCode(kind models.ErrorKind) (int, int) {
	switch kind {
	case models.KindValidation, models.KindConflict:
		return http.StatusBadRequest, codeValidationError
	case models.KindUnauthorized:
		return http.StatusUnauthorized, codeUnauthorizedError
	case models.KindForbidden:
		return http.StatusForbidden, codeForbiddenError
	case models.KindNotFound:
		return http.StatusNotFound, codeNotFound
	}
	return http.StatusInternalServerError, codeInternalError
}

// SendBindError renders a request decoding failure as a validation error.
func (u *HTTPHelper) SendBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		u.SendValidationError(c, validationErrors)
		return
	}

	field := nonFieldErrors
	message := "Malformed request body."
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			field = typeErr.Field
		}
		message = "Expected " + typeErr.Type.String() + " but got " + typeErr.Value + "."
	} else {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			message = "Invalid number " + strconv.Quote(numErr.Num) + "."
		}
	}
	u.sendError(c, http.StatusBadRequest, codeValidationError, "validationError", message, map[string][]string{
		field: {message},
	})
}

func (u *HTTPHelper) SendValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	errorResponse := map[string][]string{}
	errorTranslation := validationErrors.Translate(u.Translator)
	for _, err := range validationErrors {
		errKey := err.Field()
		errorResponse[errKey] = append(errorResponse[errKey], errorTranslation[err.Namespace()])
	}
	u.sendError(c, http.StatusBadRequest, codeValidationError, "validationError", "Invalid input.", errorResponse)
}

func (u *HTTPHelper) sendError(c *gin.Context, status, code int, codeType, message string, fields map[string][]string) {
	if fields == nil {
		fields = map[string][]string{}
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":         code,
		"code_type":    codeType,
		"code_message": message,
		"errors":       fields,
	})
}

// GetPagingURL returns the current URL with page and limit replaced. Other
// query parameters such as filters are kept.
func (u *HTTPHelper) GetPagingURL(c *gin.Context, page, limit int) string {
	r := c.Request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return scheme + "://" + r.Host + r.URL.Path + "?" + q.Encode()
}

// GeneratePaging builds the paginated envelope {count, next, previous, results}.
func (u *HTTPHelper) GeneratePaging(c *gin.Context, page, limit int, totalRecord int64, results interface{}) gin.H {
	var next, previous interface{}
	if int64(page*limit) < totalRecord {
		next = u.GetPagingURL(c, page+1, limit)
	}
	if page > 1 {
		previous = u.GetPagingURL(c, page-1, limit)
	}
	return gin.H{
		"count":    totalRecord,
		"next":     next,
		"previous": previous,
		"results":  results,
	}
}

// SetIdentity stores the caller resolved by the auth middleware.
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(identityKey, id)
}

// Identity returns the caller of the request, anonymous when no token was
// presented.
func Identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Anonymous()
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
