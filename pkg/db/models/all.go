package models

// All lists every persisted model in dependency order, for gorm AutoMigrate
// on databases the goose SQL does not target.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Book{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Review{},
		&WishlistItem{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
