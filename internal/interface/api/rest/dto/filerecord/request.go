package filerecord

type RenameRequest struct {
	Name string `json:"name"`
}
