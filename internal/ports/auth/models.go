package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
}

// Identity es el usuario ya resuelto contra el directorio de usuarios.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// DisplayName: nombre, luego email, luego vacío.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}
