// Package entities holds the GORM rows of the assistant service and their
// conversions to domain models.
package entities

// All lists every entity for sqlite AutoMigrate.
func All() []any {
	return []any{
		&Configuration{},
		&Extension{},
		&Bucket{},
		&Conversation{},
		&Message{},
		&File{},
		&Blob{},
		&ConversationFile{},
	}
}
