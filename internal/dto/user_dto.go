package dto

// UpdateProfileRequest is a patch: a field left out of the JSON body is not
// touched, an explicit null clears it.
type UpdateProfileRequest struct {
	Name        Optional[string]   `json:"name"`
	Bio         Optional[string]   `json:"bio"`
	Location    Optional[string]   `json:"location"`
	Image       Optional[string]   `json:"image"`
	Communities Optional[[]string] `json:"communities"`
	Notes       Optional[string]   `json:"notes"`
}

func (r *UpdateProfileRequest) TouchesUser() bool {
	return r.Name.Set || r.Bio.Set || r.Location.Set || r.Image.Set
}

func (r *UpdateProfileRequest) TouchesProfile() bool {
	return r.Communities.Set || r.Notes.Set
}

type UploadResponse struct {
	URL string `json:"url"`
}
