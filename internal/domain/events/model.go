package events

import "time"

// Event es un incidente reportado dentro de un círculo. CircleID no cambia nunca.
type Event struct {
	ID       string
	CircleID string

	Title       *string
	Description *string
	RequestText string
	EventType   string
	CameraZone  string

	Severity Severity
	Status   Status

	// Resolution es un resumen libre; ResolutionNote es la nota que se exige al resolver.
	Resolution     string
	ResolutionNote *string

	OccurredAt   *time.Time
	VideoAssetID *string
	CreatedByID  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Event) IsCreatedBy(userID string) bool {
	return userID != "" && e.CreatedByID != nil && *e.CreatedByID == userID
}

// View es la proyección de un evento para un caller concreto.
type View struct {
	ID             string     `json:"id"`
	CircleID       string     `json:"circleId"`
	CircleName     string     `json:"circleName"`
	CircleAddress  *string    `json:"circleAddress"`
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	RequestText    string     `json:"requestText"`
	EventType      string     `json:"eventType"`
	CameraZone     string     `json:"cameraZone"`
	Severity       Severity   `json:"severity"`
	Status         Status     `json:"status"`
	Resolution     string     `json:"resolution"`
	ResolutionNote *string    `json:"resolutionNote"`
	OccurredAt     *time.Time `json:"occurredAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	VideoAssetID   *string    `json:"videoAssetId"`
	VideoURL       *string    `json:"videoUrl"`

	CreatedByID    *string `json:"createdById"`
	CreatedByName  *string `json:"createdByName"`
	CreatedByEmail *string `json:"createdByEmail"`
	CreatedByRole  string  `json:"createdByRole"`

	IsMine              bool   `json:"isMine"`
	MyRoleInCircle      string `json:"myRoleInCircle"`
	CanEditEvent        bool   `json:"canEditEvent"`
	CanChangeResolution bool   `json:"canChangeResolution"`
}
