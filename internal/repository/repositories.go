package repository

// Repositories is a container for all repository instances.
type Repositories struct {
	Events           *EventRepository
	Orders           *OrderRepository
	Positions        *OrderPositionRepository
	BaseURLs         *BaseURLRepository
	KeyFiles         *KeyFileRepository
	AttestationLinks *AttestationLinkRepository
}

// NewRepositories wires every repository to db, normally the server's
// connection pool.
func NewRepositories(db DBInterface) *Repositories {
	return &Repositories{
		Events:           NewEventRepository(db),
		Orders:           NewOrderRepository(db),
		Positions:        NewOrderPositionRepository(db),
		BaseURLs:         NewBaseURLRepository(db),
		KeyFiles:         NewKeyFileRepository(db),
		AttestationLinks: NewAttestationLinkRepository(db),
	}
}
