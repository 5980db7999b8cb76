package types

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a physical item tracked for maintenance purposes. It is owned by
// exactly one user and UserID never changes after creation.
type Asset struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AssetInput is the payload for creating an asset.
type AssetInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// AssetPatch is a partial update. A null description clears it; a null name
// is rejected.
type AssetPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

// Empty reports whether the patch changes nothing.
func (p AssetPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set
}
