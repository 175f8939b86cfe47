package users

import "github.com/dropDatabas3/userpanel/internal/schema"

// ListPageData es la respuesta del loader de la lista.
type ListPageData struct {
	Config schema.ListView `json:"config"`
	Schema []schema.Field  `json:"schema"`
}

// DetailPageData es la respuesta del loader del detalle.
type DetailPageData struct {
	UserDetailData *UserDetailResponse `json:"userDetailData"`
	Schema         []schema.Field      `json:"schema"`
}

// LoaderError es el cuerpo de error de los loaders.
type LoaderError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DeactivateStubData es el data del envelope de desactivación sin backend.
type DeactivateStubData struct {
	ID string `json:"id"`
}
