package subscription

// Manager - шина событий: публикация по топику и подписка на набор топиков.
type Manager interface {
	Subscribe(topics ...string) (<-chan Event, func())
	Publish(topic string, payload any)
}
