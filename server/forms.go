package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"yatube/storage/queries"
)

const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PostForm carries a create/edit submission: required text, optional
// group reference, optional image upload.
type PostForm struct {
	Text    string
	GroupID *uint
	Image   *Upload

	rawGroup string
}

func parsePostForm(r *http.Request) (PostForm, error) {
	form := PostForm{}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return form, err
		}
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return form, err
			}
			form.Image = &Upload{
				Filename:    header.Filename,
				ContentType: http.DetectContentType(data),
				Data:        data,
			}
		} else if err != http.ErrMissingFile {
			return form, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return form, err
		}
	}

	form.Text = strings.TrimSpace(r.FormValue("text"))
	form.rawGroup = strings.TrimSpace(r.FormValue("group"))
	return form, nil
}

func (f *PostForm) Validate(db *gorm.DB) []FieldError {
	var formErrors []FieldError

	if f.Text == "" {
		formErrors = append(formErrors, FieldError{
			Field:   "text",
			Message: "text is required",
		})
	}

	if f.rawGroup != "" {
		groupID, err := strconv.ParseUint(f.rawGroup, 10, 64)
		if err != nil {
			formErrors = append(formErrors, FieldError{
				Field:   "group",
				Message: "group must be a valid id",
			})
		} else {
			exists, existsErr := queries.GroupExists(db, uint(groupID))
			if existsErr != nil || !exists {
				formErrors = append(formErrors, FieldError{
					Field:   "group",
					Message: "group does not exist",
				})
			} else {
				id := uint(groupID)
				f.GroupID = &id
			}
		}
	}

	if f.Image != nil && !allowedImageTypes[f.Image.ContentType] {
		formErrors = append(formErrors, FieldError{
			Field:   "image",
			Message: "unsupported image type",
		})
	}

	return formErrors
}

func (f *PostForm) Context() map[string]any {
	return map[string]any{
		"text":  f.Text,
		"group": f.rawGroup,
	}
}

type CommentForm struct {
	Text string
}

func parseCommentForm(r *http.Request) CommentForm {
	return CommentForm{Text: strings.TrimSpace(r.FormValue("text"))}
}

func (f *CommentForm) Validate() []FieldError {
	if f.Text == "" {
		return []FieldError{{Field: "text", Message: "text is required"}}
	}
	return nil
}

type AuthForm struct {
	Username string
	Password string
}

func parseAuthForm(r *http.Request) AuthForm {
	return AuthForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
}

func (f *AuthForm) Validate() []FieldError {
	var formErrors []FieldError
	if f.Username == "" {
		formErrors = append(formErrors, FieldError{Field: "username", Message: "username is required"})
	}
	if f.Password == "" {
		formErrors = append(formErrors, FieldError{Field: "password", Message: "password is required"})
	}
	return formErrors
}

func (f *AuthForm) Context() map[string]any {
	return map[string]any{"username": f.Username}
}
