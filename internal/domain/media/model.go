package media

import "time"

// VideoAsset es la metadata de un video ya subido. El almacenamiento del archivo vive fuera del servicio.
type VideoAsset struct {
	ID          string
	URL         string
	StoragePath string
	DurationSec *int

	CreatedAt time.Time
	UpdatedAt time.Time
}
