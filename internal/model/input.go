package model

import "strings"

// NormalizedInput is a row's identifying fields after field-name
// normalization. Immutable for the duration of a request.
type NormalizedInput struct {
	RowID       string `json:"rowId"`
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`
}

// fieldAliases maps raw grid column names to canonical input field names.
var fieldAliases = map[string]string{
	"name":          FieldName,
	"full_name":     FieldName,
	"fullname":      FieldName,
	"person":        FieldName,
	"company":       FieldCompany,
	"company_name":  FieldCompany,
	"companyname":   FieldCompany,
	"organization":  FieldCompany,
	"domain":        FieldDomain,
	"website":       FieldDomain,
	"website_url":   FieldDomain,
	"url":           FieldDomain,
	"email":         FieldEmail,
	"email_address": FieldEmail,
	"work_email":    FieldEmail,
	"linkedin":      FieldLinkedInURL,
	"linkedin_url":  FieldLinkedInURL,
	"linkedinurl":   FieldLinkedInURL,
}

// NormalizeRow builds a NormalizedInput from raw row data, applying
// field-name aliases (company_name → company, website → domain, ...).
// Unknown keys are ignored; empty values never populate a field.
func NormalizeRow(rowID string, data map[string]string) NormalizedInput {
	in := NormalizedInput{RowID: rowID}
	for k, v := range data {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		canonical, ok := fieldAliases[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			continue
		}
		switch canonical {
		case FieldName:
			in.Name = v
		case FieldCompany:
			in.Company = v
		case FieldDomain:
			in.Domain = v
		case FieldEmail:
			in.Email = v
		case FieldLinkedInURL:
			in.LinkedInURL = v
		}
	}
	return in
}

// AvailableFields returns the canonical names of all non-empty fields.
func (in NormalizedInput) AvailableFields() []string {
	var fields []string
	for _, f := range []struct {
		key string
		val string
	}{
		{FieldName, in.Name},
		{FieldCompany, in.Company},
		{FieldDomain, in.Domain},
		{FieldEmail, in.Email},
		{FieldLinkedInURL, in.LinkedInURL},
	} {
		if f.val != "" {
			fields = append(fields, f.key)
		}
	}
	return fields
}

// Field returns the value of the named canonical input field.
func (in NormalizedInput) Field(key string) string {
	switch key {
	case FieldName:
		return in.Name
	case FieldCompany:
		return in.Company
	case FieldDomain:
		return in.Domain
	case FieldEmail:
		return in.Email
	case FieldLinkedInURL:
		return in.LinkedInURL
	default:
		return ""
	}
}

// IsEmpty reports whether the input carries no identifying field at all.
func (in NormalizedInput) IsEmpty() bool {
	return in.Name == "" && in.Company == "" && in.Domain == "" &&
		in.Email == "" && in.LinkedInURL == ""
}
