package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names of the 'users' collection.
const (
	FieldID        = "_id"
	FieldEmail     = "email"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldPassword  = "password"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// UserDocument mirrors a document of the 'users' collection.
// Password holds the bcrypt hash; the field name is kept for existing data.
type UserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty"`
}
