package checkout

import (
	"regexp"
	"strings"

	"specflow/internal/domain"
)

const DefaultCountry = "United States"

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Details son los datos de contacto y facturacion del paso 1.
type Details struct {
	Email    string
	FullName string
	Address  string
	City     string
	Zip      string
	Country  string
}

func NewDetails() Details {
	return Details{Country: DefaultCountry}
}

// Validate devuelve un *domain.ValidationError con un mensaje por campo invalido.
func (d Details) Validate() error {
	fields := map[string]string{}
	if !emailPattern.MatchString(d.Email) {
		fields["email"] = "Valid email is required"
	}
	if strings.TrimSpace(d.FullName) == "" {
		fields["fullName"] = "Full Name is required"
	}
	if strings.TrimSpace(d.Address) == "" {
		fields["address"] = "Address is required"
	}
	if strings.TrimSpace(d.Country) == "" {
		fields["country"] = "Country is required"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
