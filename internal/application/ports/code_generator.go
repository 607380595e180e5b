package ports

type CodeGenerator interface {
	Generate() (string, error)
}

type QREncoder interface {
	Encode(content string) ([]byte, error)
}
