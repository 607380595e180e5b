package download

type ResolveRequest struct {
	Code string `json:"code"`
}
