package model

import "time"

// StoredBlob — серверная модель объекта блоба в бэкенде "db".
// Каждая запись — отдельный объект; одинаковые данные дают одинаковый BlobID.
type StoredBlob struct {
	ObjectID string `gorm:"primaryKey;type:uuid"`
	BlobID   string `gorm:"not null;index"`
	Owner    string `gorm:"not null;index"` // адрес подписанта

	Data []byte `gorm:"not null"`

	Size        int64 `gorm:"not null"`
	StorageSize int64 `gorm:"not null"`
	StartEpoch  int64 `gorm:"not null"`
	EndEpoch    int64 `gorm:"not null;index"`
	Deletable   bool  `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
