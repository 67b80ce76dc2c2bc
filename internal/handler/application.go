package handler

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/middleware"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
)

// ApplicationHandler exposes the user-facing application endpoints:
// submitting a verification form and reading one's own submission.
type ApplicationHandler struct {
	Apps *service.ApplicationService
}

func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{Apps: apps}
}

// submitForm mirrors the multipart form fields of a submission. birthDate
// is parsed and range-checked separately.
type submitForm struct {
	FirstName        string `form:"firstName" validate:"required,min=2,max=100"`
	LastName         string `form:"lastName" validate:"required,min=2,max=100"`
	Patronymic       string `form:"patronymic" validate:"required,min=2,max=100"`
	BirthDate        string `form:"birthDate" validate:"required"`
	PassportSeries   string `form:"passportSeries" validate:"required,len=10"`
	PassportNumber   string `form:"passportNumber" validate:"required,len=9,numeric"`
	IssuingAuthority string `form:"issuingAuthority" validate:"required,min=4,max=255"`
	PlaceOfResidence string `form:"placeOfResidence" validate:"required,min=2,max=255"`
	DigitalSignature string `form:"digitalSignature" validate:"omitempty,max=500"`
}

// formFile returns the first uploaded file under name, or nil when the
// field is absent.
func formFile(form *multipart.Form, name string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// Submit validates the form and files at the boundary, then hands the
// submission to the service. Both photos are mandatory here, before any
// store or upload call is made; the digital signature may arrive as a
// file or as the text field.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "authentication required"))
	}

	var form submitForm
	if err := c.Bind(&form); err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "invalid form data"))
	}
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Patronymic = strings.TrimSpace(form.Patronymic)
	form.PassportSeries = strings.TrimSpace(form.PassportSeries)
	form.PassportNumber = strings.TrimSpace(form.PassportNumber)
	form.IssuingAuthority = strings.TrimSpace(form.IssuingAuthority)
	form.PlaceOfResidence = strings.TrimSpace(form.PlaceOfResidence)
	if err := c.Validate(&form); err != nil {
		return respondError(c, err)
	}

	birthDate, err := time.Parse("2006-01-02", form.BirthDate)
	if err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "birth date must be in YYYY-MM-DD format"))
	}
	if birthDate.After(time.Now()) {
		return respondError(c, apperr.New(apperr.BadRequest, "birth date cannot be in the future"))
	}

	mform, err := c.MultipartForm()
	if err != nil {
		return respondError(c, apperr.New(apperr.BadRequest, "multipart form data required"))
	}

	passportFH := formFile(mform, "passportPhoto")
	if passportFH == nil {
		return respondError(c, apperr.New(apperr.BadRequest, "passport photo is required"))
	}
	userFH := formFile(mform, "userPhoto")
	if userFH == nil {
		return respondError(c, apperr.New(apperr.BadRequest, "user photo is required"))
	}

	passportPhoto, _, err := readImageFile(passportFH, "passport photo")
	if err != nil {
		return respondError(c, err)
	}
	userPhoto, _, err := readImageFile(userFH, "user photo")
	if err != nil {
		return respondError(c, err)
	}

	var signatureFile []byte
	if fh := formFile(mform, "digitalSignature"); fh != nil {
		signatureFile, _, err = readImageFile(fh, "digital signature")
		if err != nil {
			return respondError(c, err)
		}
	}

	ctx, cancel := uploadCtx(c)
	defer cancel()

	created, err := h.Apps.Submit(ctx, user.ID, service.SubmitInput{
		FirstName:            form.FirstName,
		LastName:             form.LastName,
		Patronymic:           form.Patronymic,
		BirthDate:            birthDate,
		PassportSeries:       form.PassportSeries,
		PassportNumber:       form.PassportNumber,
		IssuingAuthority:     form.IssuingAuthority,
		PlaceOfResidence:     form.PlaceOfResidence,
		DigitalSignatureText: form.DigitalSignature,
		PassportPhoto:        passportPhoto,
		UserPhoto:            userPhoto,
		SignatureFile:        signatureFile,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "application submitted successfully", created)
}

// GetMy returns the caller's application.
func (h *ApplicationHandler) GetMy(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "authentication required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	app, err := h.Apps.GetMine(ctx, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "application retrieved", app)
}
