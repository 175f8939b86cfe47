// Package schema define los formularios declarativos y la vista de lista que consumen
// las páginas de usuarios. El renderizado y la validación de campos son del frontend.
package schema

import "net/http"

// Field es un campo de formulario.
type Field struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Label  Label       `json:"label"`
	Config FieldConfig `json:"config"`
	Rules  *Rules      `json:"rules,omitempty"`
}

type Label struct {
	Text string `json:"text"`
}

type FieldConfig struct {
	Kind        string   `json:"kind,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Option es una opción de un dropdown. Value es el id del backend.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Rules struct {
	Kind     string `json:"kind"`
	PastOnly bool   `json:"pastOnly,omitempty"`
}

// ListView describe la tabla de usuarios y el endpoint de donde lee los datos.
type ListView struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	Endpoint Endpoint `json:"endpoint"`
}

type Column struct {
	Name          string `json:"name"`
	Label         string `json:"label"`
	FilterType    string `json:"filterType"`
	ShowByDefault bool   `json:"showByDefault"`
	Sortable      bool   `json:"sortable"`
}

type Endpoint struct {
	URI    string `json:"uri"`
	Method string `json:"method"`
}

// ListEndpoint es el proxy de datos del listado servido por el panel.
const ListEndpoint = "/api/v1.0/iam/tenant/users"

// Ids de género del backend IAM.
const (
	GenderMale    = "43c645de-db9b-4c55-bb8b-43428a840e56"
	GenderFemale  = "8630cb43-7ac5-4b80-b58a-22204ee17a45"
	GenderUnknown = "b8d14a80-49f2-4a44-ade0-df74d0881dce"
	GenderOthers  = "1d68447b-c77c-44f9-a7db-785eaea449ed"
)

func text(name, label string, required bool) Field {
	return Field{
		Name:   name,
		Type:   "text",
		Label:  Label{Text: label},
		Config: FieldConfig{Placeholder: label, Required: required},
	}
}

func email(required bool) Field {
	f := text("email_address", "Email Address", required)
	f.Type = "email"
	return f
}

// UsersListView es la definición de la tabla de la página de lista.
func UsersListView() ListView {
	col := func(name, label string) Column {
		return Column{Name: name, Label: label, FilterType: "text", ShowByDefault: true, Sortable: true}
	}
	return ListView{
		Name: "User Management",
		Columns: []Column{
			col("display_name", "Display Name"),
			col("username", "Username"),
			col("email_address", "Email"),
			col("job_title", "Job Title"),
			col("user_status", "Status"),
			col("created_at", "Created At"),
			col("updated_at", "Last Activity"),
		},
		Endpoint: Endpoint{URI: ListEndpoint, Method: http.MethodGet},
	}
}

// CreateUserForm es el formulario del diálogo de alta.
func CreateUserForm() []Field {
	return []Field{
		text("first_name", "First Name", true),
		text("last_name", "Last Name", false),
		text("display_name", "Display Name", false),
		email(true),
		text("job_title", "Job Title", false),
		text("username", "Username", true),
		{
			Name:   "date_of_birth",
			Type:   "date",
			Label:  Label{Text: "Date of Birth"},
			Config: FieldConfig{Placeholder: "Date of Birth"},
			Rules:  &Rules{Kind: "date", PastOnly: true},
		},
	}
}

// UserDetailForm es el formulario de edición de la página de detalle.
func UserDetailForm() []Field {
	return []Field{
		text("first_name", "First Name", true),
		text("last_name", "Last Name", false),
		text("display_name", "Display Name", false),
		email(true),
		text("job_title", "Job Title", true),
		text("username", "Username", true),
		// TODO: reemplazar por el enum de géneros cuando el backend lo exponga.
		{
			Name:  "gender",
			Type:  "dropdown",
			Label: Label{Text: "Gender"},
			Config: FieldConfig{
				Kind:        "dropdown",
				Placeholder: "Gender",
				Options: []Option{
					{Label: "Male", Value: GenderMale},
					{Label: "Female", Value: GenderFemale},
					{Label: "Unknown", Value: GenderUnknown},
					{Label: "Others", Value: GenderOthers},
				},
			},
		},
	}
}
