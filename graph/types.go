package graph

// Page is a Facebook Page the user manages, including its Page-scoped
// access token when the platform grants one.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// AccountRef is a bare object reference carrying only an id.
type AccountRef struct {
	ID string `json:"id"`
}

// Linkage describes which Instagram account, if any, a Page is linked to.
// Meta exposes the link through two distinct fields depending on how the
// accounts were connected.
type Linkage struct {
	InstagramBusinessAccount  *AccountRef `json:"instagram_business_account"`
	ConnectedInstagramAccount *AccountRef `json:"connected_instagram_account"`
}

// InstagramAccount returns the linked account id checked across both
// linkage fields, preferring the business linkage.
func (l *Linkage) InstagramAccount() (string, bool) {
	if l == nil {
		return "", false
	}
	if l.InstagramBusinessAccount != nil && l.InstagramBusinessAccount.ID != "" {
		return l.InstagramBusinessAccount.ID, true
	}
	if l.ConnectedInstagramAccount != nil && l.ConnectedInstagramAccount.ID != "" {
		return l.ConnectedInstagramAccount.ID, true
	}
	return "", false
}

// Profile is the public profile of an Instagram professional account.
type Profile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type pageListResponse struct {
	Data  []Page    `json:"data"`
	Error *APIError `json:"error"`
}

type linkageResponse struct {
	Linkage
	Error *APIError `json:"error"`
}

type profileResponse struct {
	Profile
	Error *APIError `json:"error"`
}
