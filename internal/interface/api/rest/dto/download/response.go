package download

type (
	Entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URI  string `json:"uri"`
		Date string `json:"date"`
	}
	Entries      []Entry
	ResponseData struct {
		Data Entries `json:"data"`
	}
)
