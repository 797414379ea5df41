package domain

import "time"

// Snapshot - список новостей, опубликованный последним успешным запросом.
// Version увеличивается при каждой публикации; нулевая версия означает,
// что публикаций еще не было.
type Snapshot struct {
	Version   uint64    `json:"version"`
	Region    Region    `json:"region"`
	Articles  []Article `json:"articles"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty сообщает, что ничего еще не опубликовано.
func (s Snapshot) Empty() bool {
	return s.Version == 0
}
