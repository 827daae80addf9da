package model

// Upload — запись истории загрузок в клиентской БД.
// Ключ шифрования хранится только здесь: сервис его не сохраняет.
type Upload struct {
	ID        string
	BlobID    string
	ObjectID  string
	Size      string // размер в виде, который вернул сервер ("0.000016 MB")
	Encrypted bool
	KeyJSON   string // KeyMaterial в JSON, пусто для незашифрованных данных
	Source    string // имя файла или "-" для stdin
	CreatedAt int64
}
