package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/FACorreiaa/go-auth-service/internal/types"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past this many bytes
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
	Name     string `json:"name" example:"Alice"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret1"`
}

const (
	registerFieldsRequired = "Email, password and name are required"
	loginFieldsRequired    = "Email and password are required"
)

// Validate checks presence of every field before checking any format.
func (r RegisterRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(registerFieldsRequired)),
		validation.Field(&r.Password, validation.Required.Error(registerFieldsRequired)),
		validation.Field(&r.Name, validation.By(func(interface{}) error {
			if name == "" {
				return errors.New(registerFieldsRequired)
			}
			return nil
		})),
	)
	if err != nil {
		return asValidationError(err)
	}
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Match(emailPattern).Error("Invalid email format")),
		validation.Field(&r.Password,
			validation.RuneLength(minPasswordLength, 0).Error("Password must be at least 6 characters long"),
			validation.By(maxBytes(maxPasswordBytes)),
		),
	))
}

func (r LoginRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(loginFieldsRequired)),
		validation.Field(&r.Password, validation.Required.Error(loginFieldsRequired)),
	))
}

func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return errors.New("Password must be at most 72 bytes long")
		}
		return nil
	}
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &types.ValidationError{Err: err}
}

var fieldOrder = []string{"email", "password", "name"}

// validationMessage picks the first failing field in request order.
func validationMessage(err error) string {
	var fields validation.Errors
	if errors.As(err, &fields) {
		for _, f := range fieldOrder {
			if fe, ok := fields[f]; ok {
				return fe.Error()
			}
		}
	}
	return "Invalid request"
}
