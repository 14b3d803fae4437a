package storage

// Archive persists integration run reports for later inspection.
type Archive interface {
	Store(name string, data []byte) error
	Retrieve(name string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(name string) error
}
