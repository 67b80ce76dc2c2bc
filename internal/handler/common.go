// Package handler defines the HTTP handlers. Handlers bind and validate
// request DTOs, call into the service layer under a bounded context and
// translate typed errors into the status/message/data response envelope.
package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
)

// dbTimeout bounds the duration of store calls made on behalf of one
// request.
const dbTimeout = 5 * time.Second

// uploadTimeout bounds operations that also talk to the remote file
// store; uploads are slower than store writes.
const uploadTimeout = 30 * time.Second

// maxFileSize caps a single uploaded document at 10 MB.
const maxFileSize = 10 << 20

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validator adapts go-playground/validator to echo's Validator hook and
// registers the custom rules the DTOs rely on.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	// nicknames: english letters, digits and underscore only
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperr.New(apperr.BadRequest, "validation failed: "+err.Error())
	}
	return nil
}

// reqCtx derives a bounded context for store calls.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// uploadCtx derives a bounded context for operations involving uploads.
func uploadCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), uploadTimeout)
}

// respond writes the success envelope shared by all endpoints.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, echo.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// respondError maps a service error onto the envelope. Typed errors carry
// their own user-facing message; anything else is an internal failure
// whose details stay in the logs.
func respondError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := err.Error()
	if kind == apperr.Internal {
		if _, ok := err.(*apperr.Error); !ok {
			c.Logger().Errorf("internal error: %v", err)
			message = "internal server error"
		}
	}
	return c.JSON(status, echo.Map{"status": status, "message": message})
}

// readImageFile loads one uploaded image into memory, enforcing the size
// cap and the jpeg/png restriction. label names the document in error
// messages.
func readImageFile(fh *multipart.FileHeader, label string) ([]byte, string, error) {
	if fh.Size > maxFileSize {
		return nil, "", apperr.New(apperr.BadRequest, label+" exceeds the 10MB size limit")
	}
	mime := fh.Header.Get("Content-Type")
	// image/jpg is not a registered type but some clients label JPEGs that way
	if mime != "image/jpeg" && mime != "image/jpg" && mime != "image/png" {
		return nil, "", apperr.New(apperr.BadRequest, "only JPEG and PNG files are supported")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxFileSize {
		return nil, "", apperr.New(apperr.BadRequest, label+" exceeds the 10MB size limit")
	}
	return data, mime, nil
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.BadRequest, "invalid id")
	}
	return id, nil
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
