// Package users contiene los DTOs del panel de gestión de usuarios del tenant.
package users

// UserType es el usuario tal como lo devuelve el backend IAM.
// El panel solo lo lee y lo reenvía.
type UserType struct {
	UUID         string  `json:"uuid"`
	Username     string  `json:"username"`
	EmailAddress string  `json:"email_address"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	JobTitle     string  `json:"job_title"`
	DisplayName  string  `json:"display_name"`
	DateOfBirth  *string `json:"date_of_birth"`
	UserStatus   string  `json:"user_status"`
	GenderName   string  `json:"gender_name"`
	ThumbnailURL *string `json:"thumbnail_url"`

	// password puede venir del backend: no se mapea para no reenviarlo al panel.
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	UpdatedBy string `json:"updated_by"`
}

// CreateUserRequest para POST /v1.0/iam/tenant/users
type CreateUserRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DisplayName  string `json:"display_name"`
	EmailAddress string `json:"email_address"`
	Username     string `json:"username"`
	JobTitle     string `json:"job_title,omitempty"`
	DateOfBirth  string `json:"date_of_birth,omitempty"`
}

// UpdateUserRequest para PUT /v1.0/iam/tenant/users/{id}.
// Todos los campos son opcionales; nil = no se envía.
type UpdateUserRequest struct {
	EmailAddress *string `json:"email_address,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Username     *string `json:"username,omitempty"`
	JobTitle     *string `json:"job_title,omitempty"`
	DisplayName  *string `json:"display_name,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	GenderName   *string `json:"gender_name,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

// UserDetailResponse es la respuesta de GET /v1.0/iam/tenant/users/{id}.
type UserDetailResponse struct {
	User UserType `json:"user"`
}

// APIError es el cuerpo de error del backend IAM.
type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}
