package helpers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// ErrFormTooLarge indica que el body excede el límite configurado.
var ErrFormTooLarge = errors.New("form body too large")

// ReadForm parsea un body application/x-www-form-urlencoded o multipart/form-data
// limitando su tamaño a maxBytes. Los campos quedan accesibles vía r.PostForm.
func ReadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(maxBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrFormTooLarge
		}
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// FormValue devuelve el primer valor no vacío (trimmed) entre los nombres dados.
func FormValue(r *http.Request, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.PostFormValue(n)); v != "" {
			return v
		}
	}
	return ""
}
